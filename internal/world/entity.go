package world

import "fmt"

// EntityType tags the concrete kind of an entity.
type EntityType uint8

const (
	TypeCharacter EntityType = iota + 1
	TypeNpc
	TypeMob
	TypeGroundItem
)

func (t EntityType) String() string {
	switch t {
	case TypeCharacter:
		return "character"
	case TypeNpc:
		return "npc"
	case TypeMob:
		return "mob"
	case TypeGroundItem:
		return "ground_item"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// EntityID is unique within one EntityType.
type EntityID uint32

// EntityKey identifies an entity across all types. Map cells store keys,
// not entities; the Registry resolves them.
type EntityKey struct {
	Type EntityType
	ID   EntityID
}

func (k EntityKey) String() string {
	return fmt.Sprintf("%s#%d", k.Type, k.ID)
}

// UpdateMask flags what changed about an entity during the current tick.
// Flags are cleared at the end of every tick.
type UpdateMask uint8

const (
	UpdatePosition UpdateMask = 1 << iota
	UpdateMovementState
	UpdateAppearance
	UpdateChat
)

// EntityBase carries the state shared by every entity kind.
type EntityBase struct {
	id     EntityID
	typ    EntityType
	pos    Position
	flags  UpdateMask
	placed bool // currently inside a map cell
}

func newEntityBase(typ EntityType, id EntityID, pos Position) EntityBase {
	return EntityBase{id: id, typ: typ, pos: pos}
}

func (b *EntityBase) ID() EntityID              { return b.id }
func (b *EntityBase) Type() EntityType          { return b.typ }
func (b *EntityBase) Key() EntityKey            { return EntityKey{Type: b.typ, ID: b.id} }
func (b *EntityBase) Position() Position        { return b.pos }
func (b *EntityBase) Flags() UpdateMask         { return b.flags }
func (b *EntityBase) Flagged(m UpdateMask) bool { return b.flags&m != 0 }
func (b *EntityBase) FlagUpdate(m UpdateMask)   { b.flags |= m }
func (b *EntityBase) Placed() bool              { return b.placed }
func (b *EntityBase) base() *EntityBase         { return b }
func (b *EntityBase) clearFlags()               { b.flags = 0 }

// Entity is the closed set of world objects: *Character, *Npc, *Mob and
// *GroundItem. The unexported method keeps other packages from adding kinds.
type Entity interface {
	ID() EntityID
	Type() EntityType
	Key() EntityKey
	Position() Position
	Flags() UpdateMask
	Flagged(m UpdateMask) bool
	FlagUpdate(m UpdateMask)
	Placed() bool
	base() *EntityBase
}

// Ticker is an entity advanced once per world tick.
type Ticker interface {
	Entity
	Tick(w *Service) error
}
