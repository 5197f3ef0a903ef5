package grid

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/richxcame/demand-forecasting/internal/geo"
	"github.com/richxcame/demand-forecasting/internal/geography"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	"go.uber.org/zap"
)

// ErrInvalidSideLength is returned for non-positive side lengths
var ErrInvalidSideLength = errors.New("side length must be positive")

// Builder materializes grids from a city's addresses
type Builder struct {
	grids     RepositoryInterface
	geography geography.RepositoryInterface
}

// NewBuilder creates a new grid builder
func NewBuilder(grids RepositoryInterface, geography geography.RepositoryInterface) *Builder {
	return &Builder{grids: grids, geography: geography}
}

type cell struct{ nx, ny int }

// Gridify partitions the city into square pixels of sideLength meters and
// persists only the pixels that contain at least one address.
//
// Addresses outside the city's viewport are discarded. A grid for an
// existing (city, sideLength) pair is never rebuilt: ErrGridExists.
func (b *Builder) Gridify(ctx context.Context, cityID uuid.UUID, sideLength int) (*Grid, error) {
	if sideLength <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSideLength, sideLength)
	}

	city, err := b.geography.GetCityByID(ctx, cityID)
	if err != nil {
		return nil, err
	}

	existing, err := b.grids.GetGridByCityAndSideLength(ctx, cityID, sideLength)
	switch {
	case err == nil && existing != nil:
		return nil, fmt.Errorf("%w: %s with %d m", ErrGridExists, city.Name, sideLength)
	case err != nil && !errors.Is(err, ErrGridNotFound):
		return nil, err
	}

	box, err := city.BoundingBox()
	if err != nil {
		return nil, err
	}

	addresses, err := b.geography.ListAddressesByCity(ctx, cityID)
	if err != nil {
		return nil, err
	}

	grid := &Grid{ID: uuid.New(), CityID: cityID, SideLength: sideLength}

	cells := make(map[cell][]uuid.UUID)
	discarded := 0
	for _, address := range addresses {
		c, ok, err := locate(address, box, sideLength)
		if err != nil {
			return nil, err
		}
		if !ok {
			discarded++
			continue
		}
		cells[c] = append(cells[c], address.ID)
	}

	keys := make([]cell, 0, len(cells))
	for c := range cells {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].nx != keys[j].nx {
			return keys[i].nx < keys[j].nx
		}
		return keys[i].ny < keys[j].ny
	})

	pixels := make([]*Pixel, 0, len(keys))
	assignments := make([]AddressAssignment, 0, len(addresses)-discarded)
	for _, c := range keys {
		pixel := &Pixel{ID: uuid.New(), GridID: grid.ID, NX: c.nx, NY: c.ny}
		pixels = append(pixels, pixel)
		for _, addressID := range cells[c] {
			assignments = append(assignments, AddressAssignment{AddressID: addressID, PixelID: pixel.ID})
		}
	}

	if err := b.grids.CreateGrid(ctx, grid, pixels, assignments); err != nil {
		return nil, err
	}
	grid.Pixels = pixels

	logger.WithContext(ctx).Info("Grid created",
		zap.String("city", city.Name),
		zap.Int("side_length", sideLength),
		zap.Int("pixels", len(pixels)),
		zap.Int("addresses", len(assignments)),
		zap.Int("discarded_addresses", discarded),
	)

	return grid, nil
}

// locate maps an address to its cell. ok is false for addresses outside
// the viewport, including those projected into a different UTM zone.
func locate(address *geography.Address, box *geography.BoundingBox, sideLength int) (c cell, ok bool, err error) {
	location, err := address.Location()
	if err != nil {
		return cell{}, false, fmt.Errorf("address %s: %w", address.ID, err)
	}

	if err := location.RelateTo(box.Southwest); err != nil {
		if errors.Is(err, geo.ErrZoneMismatch) {
			logger.Debug("Address outside city zone discarded", zap.String("address_id", address.ID.String()))
			return cell{}, false, nil
		}
		return cell{}, false, err
	}

	x, _ := location.X()
	y, _ := location.Y()
	if !box.Contains(x, y) {
		logger.Debug("Address outside city viewport discarded",
			zap.String("address_id", address.ID.String()),
			zap.Int("x", x),
			zap.Int("y", y),
		)
		return cell{}, false, nil
	}

	// x and y are non-negative, so integer division floors.
	return cell{nx: x / sideLength, ny: y / sideLength}, true, nil
}

// PixelFeatures renders a grid's pixels as a GeoJSON feature collection
func (b *Builder) PixelFeatures(ctx context.Context, gridID uuid.UUID) (*geojson.FeatureCollection, error) {
	grid, err := b.grids.GetGridByID(ctx, gridID)
	if err != nil {
		return nil, err
	}
	city, err := b.geography.GetCityByID(ctx, grid.CityID)
	if err != nil {
		return nil, err
	}
	box, err := city.BoundingBox()
	if err != nil {
		return nil, err
	}
	pixels, err := b.grids.ListPixels(ctx, gridID)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, pixel := range pixels {
		bound, err := PixelGeometry(box, grid.SideLength, pixel)
		if err != nil {
			return nil, err
		}

		feature := geojson.NewFeature(bound.ToPolygon())
		feature.ID = pixel.ID.String()
		feature.Properties["pixel_id"] = pixel.ID.String()
		feature.Properties["n_x"] = pixel.NX
		feature.Properties["n_y"] = pixel.NY
		feature.Properties["side_length"] = grid.SideLength
		center := bound.Center()
		feature.Properties["center"] = []float64{center.Lat(), center.Lon()}
		fc.Append(feature)
	}
	return fc, nil
}
