package world

const (
	mobWalkSpeed   = 4.0
	mobRunSpeed    = 12.0
	mobRunDistance = 10.0 // targets further away than this are run to
	mobReach       = 2.0
)

// Mob is a hostile creature that chases the nearest character it can see.
type Mob struct {
	EntityBase

	typeID  uint16
	spawn   Position
	target  EntityKey
	running bool
}

func NewMob(id EntityID, typeID uint16, pos Position) *Mob {
	return &Mob{
		EntityBase: newEntityBase(TypeMob, id, pos),
		typeID:     typeID,
		spawn:      pos,
	}
}

func (m *Mob) TypeID() uint16    { return m.typeID }
func (m *Mob) Spawn() Position   { return m.spawn }
func (m *Mob) Target() EntityKey { return m.target }
func (m *Mob) Running() bool     { return m.running }

// Tick moves the mob one step toward the nearest character in its
// neighbourhood. Without a target it walks back to its spawn point.
func (m *Mob) Tick(w *Service) error {
	dest, ok := m.nearestCharacter(w)
	if !ok {
		m.target = EntityKey{}
		dest = m.spawn
	}

	d := m.pos.Distance(dest)
	if d <= mobReach {
		m.running = false
		return nil
	}
	m.running = d > mobRunDistance
	step := mobWalkSpeed
	if m.running {
		step = mobRunSpeed
	}
	if step > d-mobReach {
		step = d - mobReach
	}
	return w.MoveEntity(m, m.pos.Toward(dest, step))
}

func (m *Mob) nearestCharacter(w *Service) (Position, bool) {
	var (
		best  Position
		bestD float64
		found bool
	)
	for _, e := range w.EntitiesNear(m.pos) {
		c, ok := e.(*Character)
		if !ok {
			continue
		}
		d := m.pos.Distance(c.pos)
		if !found || d < bestD {
			best, bestD, found = c.pos, d, true
			m.target = c.Key()
		}
	}
	return best, found
}
