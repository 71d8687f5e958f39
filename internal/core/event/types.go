package event

// CharacterEntered is emitted once a queued character registration is applied.
type CharacterEntered struct {
	CharacterID uint32
	Name        string
	MapID       uint16
}

// CharacterLeft is emitted once a queued character unregistration is applied.
type CharacterLeft struct {
	CharacterID uint32
	Name        string
}

// EntitySpawned covers npcs, mobs and ground items entering a map.
type EntitySpawned struct {
	Kind  string
	ID    uint32
	MapID uint16
}

// EntityDespawned covers npcs, mobs and ground items leaving the world.
type EntityDespawned struct {
	Kind string
	ID   uint32
}
