package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/geography"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is an in-package mock for grid persistence
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetGridByID(ctx context.Context, id uuid.UUID) (*Grid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Grid), args.Error(1)
}

func (m *MockRepository) GetGridByCityAndSideLength(ctx context.Context, cityID uuid.UUID, sideLength int) (*Grid, error) {
	args := m.Called(ctx, cityID, sideLength)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Grid), args.Error(1)
}

func (m *MockRepository) ListGridsByCity(ctx context.Context, cityID uuid.UUID) ([]*Grid, error) {
	args := m.Called(ctx, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Grid), args.Error(1)
}

func (m *MockRepository) CreateGrid(ctx context.Context, grid *Grid, pixels []*Pixel, assignments []AddressAssignment) error {
	args := m.Called(ctx, grid, pixels, assignments)
	return args.Error(0)
}

func (m *MockRepository) ListPixels(ctx context.Context, gridID uuid.UUID) ([]*Pixel, error) {
	args := m.Called(ctx, gridID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Pixel), args.Error(1)
}


// MockGeographyRepository is an in-package mock for cities and addresses
type MockGeographyRepository struct {
	mock.Mock
}

func (m *MockGeographyRepository) GetCityByID(ctx context.Context, id uuid.UUID) (*geography.City, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geography.City), args.Error(1)
}

func (m *MockGeographyRepository) GetCityByName(ctx context.Context, name string) (*geography.City, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geography.City), args.Error(1)
}

func (m *MockGeographyRepository) ListAddressesByCity(ctx context.Context, cityID uuid.UUID) ([]*geography.Address, error) {
	args := m.Called(ctx, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*geography.Address), args.Error(1)
}

func paris() *geography.City {
	return &geography.City{
		ID:                 uuid.New(),
		Name:               "Paris",
		NortheastLatitude:  48.9021449,
		NortheastLongitude: 2.4699208,
		SouthwestLatitude:  48.815573,
		SouthwestLongitude: 2.224199,
	}
}

func address(cityID uuid.UUID, lat, lon float64) *geography.Address {
	return &geography.Address{ID: uuid.New(), CityID: cityID, Latitude: lat, Longitude: lon}
}

func TestGridify_TwoPixels(t *testing.T) {
	grids := new(MockRepository)
	geos := new(MockGeographyRepository)
	builder := NewBuilder(grids, geos)
	ctx := context.Background()

	city := paris()
	box, err := city.BoundingBox()
	require.NoError(t, err)
	// Two cells across the longer side, one across the shorter.
	side := max(box.TotalX, box.TotalY)/2 + 1

	west := address(city.ID, 48.8357377, 2.2517412)
	east := address(city.ID, 48.8898312, 2.4357622)

	geos.On("GetCityByID", ctx, city.ID).Return(city, nil)
	geos.On("ListAddressesByCity", ctx, city.ID).Return([]*geography.Address{west, east}, nil)
	grids.On("GetGridByCityAndSideLength", ctx, city.ID, side).Return(nil, ErrGridNotFound)

	var (
		savedPixels      []*Pixel
		savedAssignments []AddressAssignment
	)
	grids.On("CreateGrid", ctx, mock.AnythingOfType("*grid.Grid"), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedPixels = args.Get(2).([]*Pixel)
			savedAssignments = args.Get(3).([]AddressAssignment)
		}).
		Return(nil)

	grid, err := builder.Gridify(ctx, city.ID, side)

	require.NoError(t, err)
	assert.Equal(t, city.ID, grid.CityID)
	assert.Equal(t, side, grid.SideLength)
	require.Len(t, grid.Pixels, 2)
	assert.Equal(t, savedPixels, grid.Pixels)

	assert.Equal(t, 0, grid.Pixels[0].NX)
	assert.Equal(t, 0, grid.Pixels[0].NY)
	assert.Equal(t, 1, grid.Pixels[1].NX)
	assert.Equal(t, 0, grid.Pixels[1].NY)
	for _, p := range grid.Pixels {
		assert.Equal(t, grid.ID, p.GridID)
	}

	require.Len(t, savedAssignments, 2)
	assert.Equal(t, AddressAssignment{AddressID: west.ID, PixelID: grid.Pixels[0].ID}, savedAssignments[0])
	assert.Equal(t, AddressAssignment{AddressID: east.ID, PixelID: grid.Pixels[1].ID}, savedAssignments[1])
	grids.AssertExpectations(t)
	geos.AssertExpectations(t)
}

func TestGridify_SinglePixelWhenSideCoversCity(t *testing.T) {
	grids := new(MockRepository)
	geos := new(MockGeographyRepository)
	builder := NewBuilder(grids, geos)
	ctx := context.Background()

	city := paris()
	side := 50000

	geos.On("GetCityByID", ctx, city.ID).Return(city, nil)
	geos.On("ListAddressesByCity", ctx, city.ID).Return([]*geography.Address{
		address(city.ID, 48.8357377, 2.2517412),
		address(city.ID, 48.8898312, 2.4357622),
	}, nil)
	grids.On("GetGridByCityAndSideLength", ctx, city.ID, side).Return(nil, ErrGridNotFound)
	grids.On("CreateGrid", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	grid, err := builder.Gridify(ctx, city.ID, side)

	require.NoError(t, err)
	require.Len(t, grid.Pixels, 1)
	assert.Equal(t, 0, grid.Pixels[0].NX)
	assert.Equal(t, 0, grid.Pixels[0].NY)
}

func TestGridify_DiscardsAddressesOutsideViewport(t *testing.T) {
	grids := new(MockRepository)
	geos := new(MockGeographyRepository)
	builder := NewBuilder(grids, geos)
	ctx := context.Background()

	city := paris()
	inside := address(city.ID, 48.8357377, 2.2517412)
	south := address(city.ID, 48.70, 2.30)
	berlin := address(city.ID, 52.52, 13.405)

	geos.On("GetCityByID", ctx, city.ID).Return(city, nil)
	geos.On("ListAddressesByCity", ctx, city.ID).Return([]*geography.Address{inside, south, berlin}, nil)
	grids.On("GetGridByCityAndSideLength", ctx, city.ID, 1000).Return(nil, ErrGridNotFound)

	var savedAssignments []AddressAssignment
	grids.On("CreateGrid", ctx, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedAssignments = args.Get(3).([]AddressAssignment)
		}).
		Return(nil)

	grid, err := builder.Gridify(ctx, city.ID, 1000)

	require.NoError(t, err)
	require.Len(t, grid.Pixels, 1)
	require.Len(t, savedAssignments, 1)
	assert.Equal(t, inside.ID, savedAssignments[0].AddressID)
}

func TestGridify_NoAddresses(t *testing.T) {
	grids := new(MockRepository)
	geos := new(MockGeographyRepository)
	builder := NewBuilder(grids, geos)
	ctx := context.Background()

	city := paris()
	geos.On("GetCityByID", ctx, city.ID).Return(city, nil)
	geos.On("ListAddressesByCity", ctx, city.ID).Return([]*geography.Address{}, nil)
	grids.On("GetGridByCityAndSideLength", ctx, city.ID, 1000).Return(nil, ErrGridNotFound)
	grids.On("CreateGrid", ctx, mock.Anything, []*Pixel{}, []AddressAssignment{}).Return(nil)

	grid, err := builder.Gridify(ctx, city.ID, 1000)

	require.NoError(t, err)
	assert.Empty(t, grid.Pixels)
	grids.AssertExpectations(t)
}

func TestGridify_Errors(t *testing.T) {
	ctx := context.Background()
	city := paris()

	t.Run("non-positive side length", func(t *testing.T) {
		grids := new(MockRepository)
		geos := new(MockGeographyRepository)

		_, err := NewBuilder(grids, geos).Gridify(ctx, city.ID, 0)

		assert.ErrorIs(t, err, ErrInvalidSideLength)
		geos.AssertNotCalled(t, "GetCityByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown city", func(t *testing.T) {
		grids := new(MockRepository)
		geos := new(MockGeographyRepository)
		geos.On("GetCityByID", ctx, city.ID).Return(nil, geography.ErrCityNotFound)

		_, err := NewBuilder(grids, geos).Gridify(ctx, city.ID, 1000)

		assert.ErrorIs(t, err, geography.ErrCityNotFound)
	})

	t.Run("grid already exists", func(t *testing.T) {
		grids := new(MockRepository)
		geos := new(MockGeographyRepository)
		geos.On("GetCityByID", ctx, city.ID).Return(city, nil)
		grids.On("GetGridByCityAndSideLength", ctx, city.ID, 1000).
			Return(&Grid{ID: uuid.New(), CityID: city.ID, SideLength: 1000}, nil)

		_, err := NewBuilder(grids, geos).Gridify(ctx, city.ID, 1000)

		assert.ErrorIs(t, err, ErrGridExists)
		grids.AssertNotCalled(t, "CreateGrid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("persistence failure", func(t *testing.T) {
		grids := new(MockRepository)
		geos := new(MockGeographyRepository)
		geos.On("GetCityByID", ctx, city.ID).Return(city, nil)
		geos.On("ListAddressesByCity", ctx, city.ID).Return([]*geography.Address{}, nil)
		grids.On("GetGridByCityAndSideLength", ctx, city.ID, 1000).Return(nil, ErrGridNotFound)
		grids.On("CreateGrid", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		grid, err := NewBuilder(grids, geos).Gridify(ctx, city.ID, 1000)

		assert.Nil(t, grid)
		assert.EqualError(t, err, "connection reset")
	})
}

func TestPixelGeometry(t *testing.T) {
	city := paris()
	box, err := city.BoundingBox()
	require.NoError(t, err)

	origin, err := PixelGeometry(box, 1000, &Pixel{NX: 0, NY: 0})
	require.NoError(t, err)
	assert.InDelta(t, city.SouthwestLatitude, origin.Min.Lat(), 0.0001)
	assert.InDelta(t, city.SouthwestLongitude, origin.Min.Lon(), 0.0001)
	// One kilometer is roughly 0.009 degrees of latitude.
	assert.InDelta(t, 0.009, origin.Max.Lat()-origin.Min.Lat(), 0.001)

	next, err := PixelGeometry(box, 1000, &Pixel{NX: 1, NY: 0})
	require.NoError(t, err)
	assert.Greater(t, next.Min.Lon(), origin.Min.Lon())
	assert.InDelta(t, origin.Min.Lat(), next.Min.Lat(), 0.0002)

	// The diagonal neighbour's southwest corner is the same planar point as
	// the origin pixel's northeast corner.
	diagonal, err := PixelGeometry(box, 1000, &Pixel{NX: 1, NY: 1})
	require.NoError(t, err)
	assert.InDelta(t, origin.Max.Lon(), diagonal.Min.Lon(), 1e-6)
	assert.InDelta(t, origin.Max.Lat(), diagonal.Min.Lat(), 1e-6)
}

func TestPixelFeatures(t *testing.T) {
	grids := new(MockRepository)
	geos := new(MockGeographyRepository)
	builder := NewBuilder(grids, geos)
	ctx := context.Background()

	city := paris()
	grid := &Grid{ID: uuid.New(), CityID: city.ID, SideLength: 1000}
	pixels := []*Pixel{
		{ID: uuid.New(), GridID: grid.ID, NX: 0, NY: 0},
		{ID: uuid.New(), GridID: grid.ID, NX: 3, NY: 2},
	}

	grids.On("GetGridByID", ctx, grid.ID).Return(grid, nil)
	geos.On("GetCityByID", ctx, city.ID).Return(city, nil)
	grids.On("ListPixels", ctx, grid.ID).Return(pixels, nil)

	fc, err := builder.PixelFeatures(ctx, grid.ID)

	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, pixels[1].ID.String(), fc.Features[1].Properties["pixel_id"])
	assert.Equal(t, 3, fc.Features[1].Properties["n_x"])
	assert.Equal(t, 2, fc.Features[1].Properties["n_y"])
}

func TestPixelFeatures_GridNotFound(t *testing.T) {
	grids := new(MockRepository)
	geos := new(MockGeographyRepository)
	ctx := context.Background()
	id := uuid.New()

	grids.On("GetGridByID", ctx, id).Return(nil, ErrGridNotFound)

	_, err := NewBuilder(grids, geos).PixelFeatures(ctx, id)

	assert.ErrorIs(t, err, ErrGridNotFound)
}
