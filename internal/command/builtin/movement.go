package builtin

import (
	"fmt"
	"strconv"

	"github.com/eden/gameserver/internal/command"
	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
)

func (b *builtins) teleport(actor command.Actor, args []string) error {
	c, err := character(actor)
	if err != nil {
		return err
	}
	if len(args) < 3 || len(args) > 4 {
		return usage("teleport <x> <y> <z> [map]")
	}

	var xyz [3]float32
	for i := range xyz {
		if xyz[i], err = parseFloat(args[i]); err != nil {
			return err
		}
	}
	mapID := c.Position().Map
	if len(args) == 4 {
		id, err := strconv.ParseUint(args[3], 10, 16)
		if err != nil {
			return fmt.Errorf("bad map id %q: %w", args[3], err)
		}
		mapID = uint16(id)
	}

	if err := b.w.MoveEntity(c, world.NewPosition(mapID, xyz[0], xyz[1], xyz[2])); err != nil {
		c.SendNotice("Cannot teleport to map %d.", mapID)
		return err
	}
	pos := c.Position()
	c.Send(packet.CharacterDetails{CharacterID: uint32(c.ID()), Map: pos.Map, X: pos.X, Y: pos.Y, Z: pos.Z})
	return nil
}

func (b *builtins) loc(actor command.Actor, _ []string) error {
	c, err := character(actor)
	if err != nil {
		return err
	}
	m, _ := b.w.Maps().Get(c.Position().Map)
	cell := -1
	if m != nil {
		cell = m.CellIndex(c.Position())
	}
	c.SendNotice("%s cell=%d", c.Position(), cell)
	return nil
}
