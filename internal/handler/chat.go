package handler

import (
	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
)

// HandleChat processes C_CHAT. Text starting with the command prefix runs
// as a command; anything else is said to nearby characters.
func HandleChat(sess Session, r *packet.Reader, deps *Deps) {
	p := playerOf(sess)
	if p == nil || p.char == nil {
		return
	}
	text := r.ReadText()
	if r.Short() || text == "" {
		return
	}

	enqueue(sess, p.char, func(w *world.Service, c *world.Character) error {
		if w.Commands().IsCommand(text) {
			w.Commands().Execute(c, text)
			return nil
		}
		msg := packet.Chat{SenderID: uint32(c.ID()), Name: c.Name(), Text: text}
		for _, e := range w.EntitiesNear(c.Position()) {
			if other, ok := e.(*world.Character); ok {
				other.Send(msg)
			}
		}
		c.FlagUpdate(world.UpdateChat)
		return nil
	})
}
