package handler

import (
	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
)

// HandleMove processes C_MOVE: [u8 state][f32 x][f32 y][f32 z].
func HandleMove(sess Session, r *packet.Reader, deps *Deps) {
	p := playerOf(sess)
	if p == nil || p.char == nil {
		return
	}
	state := world.MovementState(r.ReadU8())
	x := r.ReadF32()
	y := r.ReadF32()
	z := r.ReadF32()
	if r.Short() || state > world.MovementBackflip {
		return
	}

	enqueue(sess, p.char, func(w *world.Service, c *world.Character) error {
		c.SetMovementState(state)
		return w.MoveEntity(c, world.NewPosition(c.Position().Map, x, y, z))
	})
}
