package world

// Registry owns every live entity. Map cells only hold keys, which the
// registry resolves.
type Registry struct {
	Characters *Container[*Character]
	Npcs       *Container[*Npc]
	Mobs       *Container[*Mob]
	Items      *Container[*GroundItem]
}

func NewRegistry() *Registry {
	return &Registry{
		Characters: NewContainer[*Character](),
		Npcs:       NewContainer[*Npc](),
		Mobs:       NewContainer[*Mob](),
		Items:      NewContainer[*GroundItem](),
	}
}

// Resolve returns the entity for k, or nil if it is no longer registered.
func (r *Registry) Resolve(k EntityKey) Entity {
	switch k.Type {
	case TypeCharacter:
		if c, ok := r.Characters.Get(k.ID); ok {
			return c
		}
	case TypeNpc:
		if n, ok := r.Npcs.Get(k.ID); ok {
			return n
		}
	case TypeMob:
		if m, ok := r.Mobs.Get(k.ID); ok {
			return m
		}
	case TypeGroundItem:
		if g, ok := r.Items.Get(k.ID); ok {
			return g
		}
	}
	return nil
}
