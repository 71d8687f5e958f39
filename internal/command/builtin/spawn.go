package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eden/gameserver/internal/command"
	"github.com/eden/gameserver/internal/schedule"
	"github.com/eden/gameserver/internal/world"
)

func (b *builtins) item(actor command.Actor, args []string) error {
	c, err := character(actor)
	if err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return usage("item <itemId> [count]")
	}
	itemID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || itemID == 0 {
		return fmt.Errorf("bad item id %q", args[0])
	}
	count, err := parseCount(args, 1, 0xFFFF)
	if err != nil {
		return err
	}

	g := world.NewGroundItem(world.NextGroundItemID(), uint32(itemID), uint16(count), c.ID(), c.Position())
	if err := b.w.RegisterItem(g); err != nil {
		return err
	}
	if b.opts.GroundItemTTL > 0 {
		task := schedule.After("despawn "+g.Key().String(), b.opts.GroundItemTTL, func() error {
			b.w.UnregisterItem(g)
			return nil
		})
		if err := b.w.Schedule(task); err != nil {
			return err
		}
		g.SetDespawn(task)
	}
	c.SendNotice("Dropped %d x item %d.", count, itemID)
	return nil
}

func (b *builtins) spawn(actor command.Actor, args []string) error {
	c, err := character(actor)
	if err != nil {
		return err
	}
	if len(args) < 2 || len(args) > 3 {
		return usage("spawn <npc|mob> <typeId> [count]")
	}
	typeID, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil || typeID == 0 {
		return fmt.Errorf("bad type id %q", args[1])
	}
	count, err := parseCount(args, 2, b.opts.MaxSpawnCount)
	if err != nil {
		return err
	}

	pos := c.Position()
	switch strings.ToLower(args[0]) {
	case "npc":
		for i := 0; i < count; i++ {
			if err := b.w.RegisterNpc(world.NewNpc(world.NextNpcID(), 0, uint16(typeID), pos)); err != nil {
				return err
			}
		}
	case "mob":
		for i := 0; i < count; i++ {
			if err := b.w.RegisterMob(world.NewMob(world.NextMobID(), uint16(typeID), pos)); err != nil {
				return err
			}
		}
	default:
		return usage("spawn <npc|mob> <typeId> [count]")
	}
	c.SendNotice("Spawned %d x %s %d.", count, strings.ToLower(args[0]), typeID)
	return nil
}
