package handler

import (
	"strings"

	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
	"go.uber.org/zap"
)

// HandleEnterWorld processes C_ENTER_WORLD. The character is queued for
// registration and joins the world on the next tick.
func HandleEnterWorld(sess Session, r *packet.Reader, deps *Deps) {
	p := playerOf(sess)
	if p == nil {
		sess.Close()
		return
	}
	charID := r.ReadU32()
	name := strings.TrimSpace(r.ReadString(packet.NameLength))
	if r.Short() || charID == 0 || name == "" {
		sess.Log().Warn("malformed enter world", zap.Uint32("user", p.userID))
		sess.Close()
		return
	}
	if !p.faction.Playable() {
		sess.Log().Warn("enter world without faction", zap.Uint32("user", p.userID))
		return
	}

	c := world.NewCharacter(world.EntityID(charID), p.userID, name, p.faction, deps.Spawn, sess,
		deps.Config.Network.ActionQueue)
	pos := c.Position()
	if err := deps.World.TryRegisterCharacter(c); err != nil {
		sess.Log().Info("enter world rejected",
			zap.Uint32("user", p.userID),
			zap.Uint32("character", charID),
			zap.Error(err),
		)
		sess.Send(packet.SystemNotice{Text: "That character is already in the world."})
		return
	}

	p.char = c
	sess.SetState(packet.StateInWorld)
	sess.OnClose(func() {
		deps.World.UnregisterCharacter(c)
	})
	sess.Send(packet.CharacterDetails{CharacterID: charID, Map: pos.Map, X: pos.X, Y: pos.Y, Z: pos.Z})
	deps.Log.Info("character entering world",
		zap.String("character", name),
		zap.Uint32("user", p.userID),
		zap.Stringer("faction", p.faction),
	)
}

// enqueue hands an action to the character. A character that floods its
// queue is disconnected.
func enqueue(sess Session, c *world.Character, a world.Action) {
	if c.Enqueue(a) {
		return
	}
	sess.Log().Warn("action queue full, closing session", zap.String("character", c.Name()))
	sess.Close()
}
