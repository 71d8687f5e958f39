package world

// Container indexes entities of one kind by id and keeps them in insertion
// order for deterministic iteration. Not safe for concurrent use.
type Container[T Entity] struct {
	index map[EntityID]int
	list  []T
}

func NewContainer[T Entity]() *Container[T] {
	return &Container[T]{index: make(map[EntityID]int)}
}

// Add stores e and reports whether it was not already present.
func (c *Container[T]) Add(e T) bool {
	if _, ok := c.index[e.ID()]; ok {
		return false
	}
	c.index[e.ID()] = len(c.list)
	c.list = append(c.list, e)
	return true
}

// Remove deletes the entity with the given id, keeping the order of the rest.
func (c *Container[T]) Remove(id EntityID) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	e := c.list[i]
	copy(c.list[i:], c.list[i+1:])
	var zero T
	c.list[len(c.list)-1] = zero
	c.list = c.list[:len(c.list)-1]
	delete(c.index, id)
	for j := i; j < len(c.list); j++ {
		c.index[c.list[j].ID()] = j
	}
	return e, true
}

func (c *Container[T]) Get(id EntityID) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.list[i], true
}

func (c *Container[T]) Contains(id EntityID) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Container[T]) Len() int { return len(c.list) }

// Each calls fn for every entity until fn returns false. fn must not add or
// remove entities; use Snapshot for that.
func (c *Container[T]) Each(fn func(T) bool) {
	for _, e := range c.list {
		if !fn(e) {
			return
		}
	}
}

// Snapshot returns a copy of the entities in insertion order.
func (c *Container[T]) Snapshot() []T {
	out := make([]T, len(c.list))
	copy(out, c.list)
	return out
}
