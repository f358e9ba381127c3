package catalog

import (
	"errors"
	"fmt"
)

// Room is a bookable room. Rooms are defined once at start and never change.
type Room struct {
	ID           string `json:"id" yaml:"id"`
	Capacity     int    `json:"capacity" yaml:"capacity"`
	HasProjector bool   `json:"hasProjector" yaml:"has_projector"`
	Building     string `json:"building" yaml:"building"`
	IsLab        bool   `json:"isLab,omitempty" yaml:"is_lab"`
}

// Catalog is the fixed, ordered list of rooms known to the service.
type Catalog struct {
	rooms []Room
	index map[string]int
}

// New builds a catalog from rooms, keeping their order.
func New(rooms []Room) (*Catalog, error) {
	if len(rooms) == 0 {
		return nil, errors.New("catalog: no rooms configured")
	}

	c := &Catalog{
		rooms: make([]Room, len(rooms)),
		index: make(map[string]int, len(rooms)),
	}
	copy(c.rooms, rooms)

	for i, r := range c.rooms {
		if r.ID == "" {
			return nil, fmt.Errorf("catalog: room at position %d has no id", i)
		}
		if r.Capacity <= 0 {
			return nil, fmt.Errorf("catalog: room %s has non-positive capacity %d", r.ID, r.Capacity)
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate room id %s", r.ID)
		}
		c.index[r.ID] = i
	}
	return c, nil
}

// Default returns the campus rooms the service ships with.
func Default() *Catalog {
	c, err := New([]Room{
		{ID: "A101", Capacity: 30, HasProjector: true, Building: "A"},
		{ID: "A102", Capacity: 50, HasProjector: true, Building: "A"},
		{ID: "A103", Capacity: 80, HasProjector: true, Building: "A"},
		{ID: "B201", Capacity: 40, HasProjector: true, Building: "B"},
		{ID: "B202", Capacity: 60, HasProjector: true, Building: "B"},
		{ID: "C301", Capacity: 100, HasProjector: true, Building: "C"},
		{ID: "LAB1", Capacity: 25, HasProjector: true, Building: "LAB", IsLab: true},
		{ID: "LAB2", Capacity: 25, HasProjector: true, Building: "LAB", IsLab: true},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Rooms returns a copy of the rooms in catalog order.
func (c *Catalog) Rooms() []Room {
	out := make([]Room, len(c.rooms))
	copy(out, c.rooms)
	return out
}

// Lookup returns the room with the given id.
func (c *Catalog) Lookup(id string) (Room, bool) {
	i, ok := c.index[id]
	if !ok {
		return Room{}, false
	}
	return c.rooms[i], true
}

func (c *Catalog) Len() int {
	return len(c.rooms)
}
