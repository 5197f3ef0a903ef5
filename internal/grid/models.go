package grid

import (
	"time"

	"github.com/google/uuid"
)

// Grid partitions a city into square pixels of SideLength meters
type Grid struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CityID     uuid.UUID `json:"city_id" db:"city_id"`
	SideLength int       `json:"side_length" db:"side_length"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Populated by Builder.Gridify only
	Pixels []*Pixel `json:"pixels,omitempty" db:"-"`
}

// Pixel is one non-empty cell of a grid. NX and NY count cells east and
// north of the city's southwest corner.
type Pixel struct {
	ID     uuid.UUID `json:"id" db:"id"`
	GridID uuid.UUID `json:"grid_id" db:"grid_id"`
	NX     int       `json:"n_x" db:"n_x"`
	NY     int       `json:"n_y" db:"n_y"`
}

// AddressAssignment associates an address with the pixel containing it
type AddressAssignment struct {
	AddressID uuid.UUID `json:"address_id" db:"address_id"`
	PixelID   uuid.UUID `json:"pixel_id" db:"pixel_id"`
}
