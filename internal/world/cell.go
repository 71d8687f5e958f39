package world

// Cell is one square of a map's spatial partition. It holds the keys of the
// entities currently inside it.
type Cell struct {
	keys []EntityKey
}

func (c *Cell) add(k EntityKey) {
	if c.Contains(k) {
		return
	}
	c.keys = append(c.keys, k)
}

func (c *Cell) remove(k EntityKey) bool {
	for i, have := range c.keys {
		if have == k {
			last := len(c.keys) - 1
			c.keys[i] = c.keys[last]
			c.keys = c.keys[:last]
			return true
		}
	}
	return false
}

func (c *Cell) Contains(k EntityKey) bool {
	for _, have := range c.keys {
		if have == k {
			return true
		}
	}
	return false
}

func (c *Cell) Len() int { return len(c.keys) }

// Keys returns the keys in the cell. The slice is only valid until the cell
// next changes.
func (c *Cell) Keys() []EntityKey { return c.keys }
