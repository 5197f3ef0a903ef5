package grid

import (
	"github.com/paulmach/orb"
	"github.com/richxcame/demand-forecasting/internal/geo"
	"github.com/richxcame/demand-forecasting/internal/geography"
)

// PixelGeometry derives a pixel's corners from its cell coordinates,
// relative to the city's southwest corner, and projects them back to WGS84.
func PixelGeometry(box *geography.BoundingBox, sideLength int, pixel *Pixel) (orb.Bound, error) {
	origin := box.Southwest
	zone := origin.Zone()

	swEasting := float64(origin.Easting() + pixel.NX*sideLength)
	swNorthing := float64(origin.Northing() + pixel.NY*sideLength)

	swLat, swLon, err := geo.ToLatLon(swEasting, swNorthing, zone)
	if err != nil {
		return orb.Bound{}, err
	}
	neLat, neLon, err := geo.ToLatLon(swEasting+float64(sideLength), swNorthing+float64(sideLength), zone)
	if err != nil {
		return orb.Bound{}, err
	}

	return orb.Bound{
		Min: orb.Point{swLon, swLat},
		Max: orb.Point{neLon, neLat},
	}, nil
}
