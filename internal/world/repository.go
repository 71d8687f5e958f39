package world

import (
	"fmt"
	"sort"
)

// MapRepository holds every loaded map by id.
type MapRepository struct {
	maps map[uint16]*Map
}

func NewMapRepository() *MapRepository {
	return &MapRepository{maps: make(map[uint16]*Map)}
}

// Add registers m. Loading two maps with the same id is an error.
func (r *MapRepository) Add(m *Map) error {
	if _, ok := r.maps[m.id]; ok {
		return fmt.Errorf("%w: duplicate map id %d", ErrMalformedMapData, m.id)
	}
	r.maps[m.id] = m
	return nil
}

func (r *MapRepository) Get(id uint16) (*Map, bool) {
	m, ok := r.maps[id]
	return m, ok
}

func (r *MapRepository) Len() int { return len(r.maps) }

// IDs returns the loaded map ids in ascending order.
func (r *MapRepository) IDs() []uint16 {
	ids := make([]uint16, 0, len(r.maps))
	for id := range r.maps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
