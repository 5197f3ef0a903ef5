// Package geo converts WGS84 coordinates into zone-qualified UTM points
// that can be compared and related in meters.
package geo

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrProjection is returned for coordinates that cannot be projected
	ErrProjection = errors.New("geo: invalid coordinates for projection")
	// ErrZoneMismatch is returned when two points from different UTM zones are compared or related
	ErrZoneMismatch = errors.New("geo: points lie in different UTM zones")
	// ErrAlreadyRelated is returned when RelateTo is called a second time
	ErrAlreadyRelated = errors.New("geo: point is already related to an origin")
	// ErrNotRelated is returned when X or Y is read before RelateTo
	ErrNotRelated = errors.New("geo: point has not been related to an origin")
)

// LatLon is a plain WGS84 position
type LatLon struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlanarPoint is a WGS84 position projected into its UTM zone.
// Easting and northing are fixed at construction; the relative (x, y)
// pair is set once by RelateTo.
type PlanarPoint struct {
	latLon   LatLon
	easting  int
	northing int
	zone     Zone

	related bool
	x, y    int
}

// FromLatLon projects (lat, lon) into UTM
func FromLatLon(lat, lon float64) (*PlanarPoint, error) {
	easting, northing, zone, err := project(lat, lon)
	if err != nil {
		return nil, err
	}

	return &PlanarPoint{
		latLon:   LatLon{Latitude: lat, Longitude: lon},
		easting:  int(easting),
		northing: int(northing),
		zone:     zone,
	}, nil
}

// LatLon returns the position the point was projected from
func (p *PlanarPoint) LatLon() LatLon { return p.latLon }

// Easting in meters
func (p *PlanarPoint) Easting() int { return p.easting }

// Northing in meters
func (p *PlanarPoint) Northing() int { return p.northing }

// Zone the point was projected into
func (p *PlanarPoint) Zone() Zone { return p.zone }

// RelateTo makes origin the point's coordinate frame: x and y become the
// meter offsets from origin. It may be called only once per point.
func (p *PlanarPoint) RelateTo(origin *PlanarPoint) error {
	if p.related {
		return ErrAlreadyRelated
	}
	if err := p.sameZone(origin); err != nil {
		return err
	}

	p.x = p.easting - origin.easting
	p.y = p.northing - origin.northing
	p.related = true
	return nil
}

// Related reports whether RelateTo has been called
func (p *PlanarPoint) Related() bool { return p.related }

// X is the easting offset from the origin passed to RelateTo
func (p *PlanarPoint) X() (int, error) {
	if !p.related {
		return 0, ErrNotRelated
	}
	return p.x, nil
}

// Y is the northing offset from the origin passed to RelateTo
func (p *PlanarPoint) Y() (int, error) {
	if !p.related {
		return 0, ErrNotRelated
	}
	return p.y, nil
}

// Equal compares the projected positions. Points from different zones are
// not comparable and yield ErrZoneMismatch.
func (p *PlanarPoint) Equal(other *PlanarPoint) (bool, error) {
	if err := p.sameZone(other); err != nil {
		return false, err
	}
	return p.easting == other.easting && p.northing == other.northing, nil
}

// DistanceTo returns the Euclidean distance in meters
func (p *PlanarPoint) DistanceTo(other *PlanarPoint) (float64, error) {
	if err := p.sameZone(other); err != nil {
		return 0, err
	}
	dx := float64(p.easting - other.easting)
	dy := float64(p.northing - other.northing)
	return math.Hypot(dx, dy), nil
}

func (p *PlanarPoint) String() string {
	return fmt.Sprintf("PlanarPoint(%d, %d, %s)", p.easting, p.northing, p.zone)
}

func (p *PlanarPoint) sameZone(other *PlanarPoint) error {
	if other == nil {
		return fmt.Errorf("%w: nil point", ErrZoneMismatch)
	}
	if p.zone != other.zone {
		return fmt.Errorf("%w: %s vs %s", ErrZoneMismatch, p.zone, other.zone)
	}
	return nil
}
