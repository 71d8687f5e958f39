// Package update turns per-tick world changes into client packets.
package update

import (
	"sort"

	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
)

type keySet map[world.EntityKey]struct{}

// ClientSynchronizer tracks which entities each character's client knows
// about and sends the difference every tick. Tick goroutine only.
type ClientSynchronizer struct {
	known map[world.EntityID]keySet
}

func NewClientSynchronizer() *ClientSynchronizer {
	return &ClientSynchronizer{known: make(map[world.EntityID]keySet)}
}

// Known reports whether viewer's client has been told about k.
func (s *ClientSynchronizer) Known(viewer world.EntityID, k world.EntityKey) bool {
	_, ok := s.known[viewer][k]
	return ok
}

func (s *ClientSynchronizer) Synchronize(w *world.Service, chars []*world.Character) {
	live := make(map[world.EntityID]struct{}, len(chars))
	for _, c := range chars {
		live[c.ID()] = struct{}{}
		s.syncCharacter(w, c)
	}
	for id := range s.known {
		if _, ok := live[id]; !ok {
			delete(s.known, id)
		}
	}
}

func (s *ClientSynchronizer) syncCharacter(w *world.Service, c *world.Character) {
	prev := s.known[c.ID()]
	next := make(keySet, len(prev))

	for _, e := range w.EntitiesNear(c.Position()) {
		k := e.Key()
		if k == c.Key() {
			continue
		}
		next[k] = struct{}{}
		if _, ok := prev[k]; !ok {
			c.Send(appear(e))
			continue
		}
		if e.Flagged(world.UpdatePosition) {
			c.Send(move(e))
		}
		if other, ok := e.(*world.Character); ok && other.Flagged(world.UpdateMovementState) {
			c.Send(packet.MovementState{CharacterID: uint32(other.ID()), State: uint8(other.MovementState())})
		}
	}

	gone := make([]world.EntityKey, 0)
	for k := range prev {
		if _, ok := next[k]; !ok {
			gone = append(gone, k)
		}
	}
	sort.Slice(gone, func(i, j int) bool {
		if gone[i].Type != gone[j].Type {
			return gone[i].Type < gone[j].Type
		}
		return gone[i].ID < gone[j].ID
	})
	for _, k := range gone {
		c.Send(packet.EntityDisappear{Kind: uint8(k.Type), ID: uint32(k.ID)})
	}

	s.known[c.ID()] = next
}

func appear(e world.Entity) packet.EntityAppear {
	pos := e.Position()
	msg := packet.EntityAppear{
		Kind: uint8(e.Type()),
		ID:   uint32(e.ID()),
		X:    pos.X,
		Y:    pos.Y,
		Z:    pos.Z,
	}
	switch v := e.(type) {
	case *world.Character:
		msg.Name = v.Name()
	case *world.Npc:
		msg.TypeID = v.TypeID()
	case *world.Mob:
		msg.TypeID = v.TypeID()
	case *world.GroundItem:
		msg.TypeID = uint16(v.ItemTypeID())
	}
	return msg
}

func move(e world.Entity) packet.EntityMove {
	pos := e.Position()
	msg := packet.EntityMove{
		Kind: uint8(e.Type()),
		ID:   uint32(e.ID()),
		X:    pos.X,
		Y:    pos.Y,
		Z:    pos.Z,
	}
	switch v := e.(type) {
	case *world.Character:
		msg.Running = v.MovementState() == world.MovementRunning
	case *world.Mob:
		msg.Running = v.Running()
	}
	return msg
}
