package geography

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/geo"
)

// City is a delivery area with a declared viewport
type City struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	NortheastLatitude  float64   `json:"northeast_latitude" db:"northeast_latitude"`
	NortheastLongitude float64   `json:"northeast_longitude" db:"northeast_longitude"`
	SouthwestLatitude  float64   `json:"southwest_latitude" db:"southwest_latitude"`
	SouthwestLongitude float64   `json:"southwest_longitude" db:"southwest_longitude"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// Center is the midpoint of the viewport
func (c *City) Center() geo.LatLon {
	return geo.LatLon{
		Latitude:  (c.NortheastLatitude + c.SouthwestLatitude) / 2,
		Longitude: (c.NortheastLongitude + c.SouthwestLongitude) / 2,
	}
}

// BoundingBox projects the city's viewport corners. It is recomputed on
// every call; callers that need it repeatedly keep the result.
func (c *City) BoundingBox() (*BoundingBox, error) {
	southwest, err := geo.FromLatLon(c.SouthwestLatitude, c.SouthwestLongitude)
	if err != nil {
		return nil, fmt.Errorf("city %s southwest corner: %w", c.Name, err)
	}
	northeast, err := geo.FromLatLon(c.NortheastLatitude, c.NortheastLongitude)
	if err != nil {
		return nil, fmt.Errorf("city %s northeast corner: %w", c.Name, err)
	}

	if err := northeast.RelateTo(southwest); err != nil {
		return nil, fmt.Errorf("city %s viewport: %w", c.Name, err)
	}
	totalX, _ := northeast.X()
	totalY, _ := northeast.Y()
	if totalX <= 0 || totalY <= 0 {
		return nil, fmt.Errorf("city %s viewport has no extent (%d x %d m)", c.Name, totalX, totalY)
	}

	return &BoundingBox{
		Southwest: southwest,
		Northeast: northeast,
		TotalX:    totalX,
		TotalY:    totalY,
	}, nil
}

// BoundingBox is a city's viewport in planar coordinates. The southwest
// corner is the origin of the city's coordinate frame.
type BoundingBox struct {
	Southwest *geo.PlanarPoint
	Northeast *geo.PlanarPoint
	TotalX    int // meters
	TotalY    int // meters
}

// Contains reports whether a relative (x, y) lies inside [0, TotalX) x [0, TotalY)
func (b *BoundingBox) Contains(x, y int) bool {
	return x >= 0 && x < b.TotalX && y >= 0 && y < b.TotalY
}

// Address is a pickup or delivery location
type Address struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CityID    uuid.UUID `json:"city_id" db:"city_id"`
	Street    string    `json:"street" db:"street"`
	ZipCode   string    `json:"zip_code" db:"zip_code"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
}

// Location projects the address
func (a *Address) Location() (*geo.PlanarPoint, error) {
	return geo.FromLatLon(a.Latitude, a.Longitude)
}
