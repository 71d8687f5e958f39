package world

// Npc is a stationary non-player character: merchants, guards, quest givers.
type Npc struct {
	EntityBase

	kind   uint8
	typeID uint16
}

func NewNpc(id EntityID, kind uint8, typeID uint16, pos Position) *Npc {
	return &Npc{
		EntityBase: newEntityBase(TypeNpc, id, pos),
		kind:       kind,
		typeID:     typeID,
	}
}

func (n *Npc) Kind() uint8    { return n.kind }
func (n *Npc) TypeID() uint16 { return n.typeID }

// Tick is a no-op; npcs only react to interaction.
func (n *Npc) Tick(*Service) error { return nil }
