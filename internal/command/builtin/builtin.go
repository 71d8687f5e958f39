// Package builtin provides the commands every world server ships with.
package builtin

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/eden/gameserver/internal/command"
	"github.com/eden/gameserver/internal/world"
)

var (
	ErrUsage        = errors.New("usage")
	ErrNotCharacter = errors.New("command requires a character")
)

// Options tunes the built-in commands.
type Options struct {
	GroundItemTTL uint64 // ticks before a spawned item despawns, 0 = never
	MaxSpawnCount int
}

// RegisterAll adds the built-in commands to mgr.
func RegisterAll(mgr *command.Manager, w *world.Service, opts Options) {
	if opts.MaxSpawnCount <= 0 {
		opts.MaxSpawnCount = 50
	}
	b := &builtins{w: w, mgr: mgr, opts: opts}
	for _, cmd := range []command.Command{
		{Identifier: "teleport", Usage: "teleport <x> <y> <z> [map]", Handler: b.teleport},
		{Identifier: "item", Usage: "item <itemId> [count]", Handler: b.item},
		{Identifier: "spawn", Usage: "spawn <npc|mob> <typeId> [count]", Handler: b.spawn},
		{Identifier: "loc", Usage: "loc", Handler: b.loc},
		{Identifier: "who", Usage: "who", Handler: b.who},
		{Identifier: "help", Usage: "help", Handler: b.help},
	} {
		mgr.Register(cmd)
	}
}

type builtins struct {
	w    *world.Service
	mgr  *command.Manager
	opts Options
}

func character(actor command.Actor) (*world.Character, error) {
	c, ok := actor.(*world.Character)
	if !ok {
		return nil, ErrNotCharacter
	}
	return c, nil
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", ErrUsage, format)
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("bad coordinate %q: %w", s, err)
	}
	return float32(v), nil
}

func parseCount(args []string, i, limit int) (int, error) {
	if len(args) <= i {
		return 1, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 || n > limit {
		return 0, fmt.Errorf("bad count %q (1-%d)", args[i], limit)
	}
	return n, nil
}
