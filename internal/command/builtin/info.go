package builtin

import (
	"sort"
	"strings"

	"github.com/eden/gameserver/internal/command"
)

func (b *builtins) who(actor command.Actor, _ []string) error {
	chars := b.w.Characters()
	names := make([]string, 0, len(chars))
	for _, c := range chars {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	actor.SendNotice("%d online: %s", len(names), strings.Join(names, ", "))
	return nil
}

func (b *builtins) help(actor command.Actor, _ []string) error {
	prefix := string(b.mgr.Prefix())
	for _, id := range b.mgr.Identifiers() {
		cmd, _ := b.mgr.Lookup(id)
		u := cmd.Usage
		if u == "" {
			u = id
		}
		actor.SendNotice("%s", prefix+u)
	}
	return nil
}
