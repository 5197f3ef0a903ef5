package geo

import (
	"fmt"
	"math"
	"sync"

	"github.com/ctessum/geom/proj"
)

const wgs84Definition = "+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs"

// Zone identifies a UTM zone. Planar coordinates are comparable in meters
// only between points of the same zone.
type Zone struct {
	Number int
	North  bool
}

// String renders the zone as e.g. "31N"
func (z Zone) String() string {
	hemisphere := "S"
	if z.North {
		hemisphere = "N"
	}
	return fmt.Sprintf("%d%s", z.Number, hemisphere)
}

// ZoneOf returns the UTM zone containing (lat, lon), including the Norway and Svalbard exceptions.
func ZoneOf(lat, lon float64) Zone {
	number := int(math.Floor((lon+180)/6)) + 1
	if number > 60 {
		number = 60
	}

	switch {
	case lat >= 56 && lat < 64 && lon >= 3 && lon < 12:
		number = 32
	case lat >= 72 && lat < 84:
		switch {
		case lon >= 0 && lon < 9:
			number = 31
		case lon >= 9 && lon < 21:
			number = 33
		case lon >= 21 && lon < 33:
			number = 35
		case lon >= 33 && lon < 42:
			number = 37
		}
	}

	return Zone{Number: number, North: lat >= 0}
}

type zoneTransforms struct {
	forward proj.Transformer
	inverse proj.Transformer
}

var (
	transformsMu sync.Mutex
	transforms   = make(map[Zone]*zoneTransforms)
)

// transformsFor parses the zone's spatial reference once and caches both directions.
func transformsFor(zone Zone) (*zoneTransforms, error) {
	transformsMu.Lock()
	defer transformsMu.Unlock()

	if t, ok := transforms[zone]; ok {
		return t, nil
	}

	wgs84, err := proj.Parse(wgs84Definition)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing WGS84: %v", ErrProjection, err)
	}

	definition := fmt.Sprintf("+proj=utm +zone=%d +ellps=WGS84 +datum=WGS84 +units=m +no_defs", zone.Number)
	if !zone.North {
		definition += " +south"
	}
	utm, err := proj.Parse(definition)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing zone %s: %v", ErrProjection, zone, err)
	}

	forward, err := wgs84.NewTransform(utm)
	if err != nil {
		return nil, fmt.Errorf("%w: zone %s forward transform: %v", ErrProjection, zone, err)
	}
	inverse, err := utm.NewTransform(wgs84)
	if err != nil {
		return nil, fmt.Errorf("%w: zone %s inverse transform: %v", ErrProjection, zone, err)
	}

	t := &zoneTransforms{forward: forward, inverse: inverse}
	transforms[zone] = t
	return t, nil
}

// ValidateLatLon checks the WGS84 ranges and the latitude band UTM is defined for.
func ValidateLatLon(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrProjection, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrProjection, lon)
	}
	if lat < -80 || lat > 84 {
		return fmt.Errorf("%w: latitude %v is outside the UTM band (80S to 84N)", ErrProjection, lat)
	}
	return nil
}

func project(lat, lon float64) (easting, northing float64, zone Zone, err error) {
	if err := ValidateLatLon(lat, lon); err != nil {
		return 0, 0, Zone{}, err
	}

	zone = ZoneOf(lat, lon)
	t, err := transformsFor(zone)
	if err != nil {
		return 0, 0, Zone{}, err
	}

	easting, northing, err = t.forward(lon, lat)
	if err != nil {
		return 0, 0, Zone{}, fmt.Errorf("%w: (%v, %v): %v", ErrProjection, lat, lon, err)
	}
	return easting, northing, zone, nil
}

// ToLatLon converts a planar position in zone back to WGS84.
func ToLatLon(easting, northing float64, zone Zone) (lat, lon float64, err error) {
	t, err := transformsFor(zone)
	if err != nil {
		return 0, 0, err
	}

	lon, lat, err = t.inverse(easting, northing)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: (%v, %v) in zone %s: %v", ErrProjection, easting, northing, zone, err)
	}
	return lat, lon, nil
}
