package handler

import (
	"context"

	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
	"go.uber.org/zap"
)

const (
	characterSlots     = 5
	emptySlotFrameSize = 3 // opcode + slot byte
)

// HandleHandshake processes C_HANDSHAKE: the login server hands the client
// over with its user id, and the character screen is sent.
func HandleHandshake(sess Session, r *packet.Reader, deps *Deps) {
	userID := r.ReadU32()
	if r.Short() {
		sess.Log().Warn("short handshake", zap.String("ip", sess.RemoteAddr()))
		sess.Close()
		return
	}

	faction := fetchFaction(sess, userID, deps)
	sess.Attach(&player{userID: userID, faction: faction})
	sess.SetState(packet.StateCharacterScreen)
	sendCharacterScreen(sess, faction)
}

// fetchFaction falls back to FactionNeither when the store fails, which
// sends the client to faction selection.
func fetchFaction(sess Session, userID uint32, deps *Deps) world.Faction {
	faction, err := deps.Factions.Fetch(context.Background(), userID, deps.Config.Server.WorldID)
	if err != nil {
		deps.Log.Error("faction fetch failed",
			zap.Uint32("user", userID),
			zap.String("ip", sess.RemoteAddr()),
			zap.Error(err),
		)
		return world.FactionNeither
	}
	return faction
}

func sendCharacterScreen(sess Session, faction world.Faction) {
	sess.Send(packet.AccountFactionNotify{Faction: uint8(faction)})
	if faction == world.FactionNeither {
		return
	}
	for slot := uint8(0); slot < characterSlots; slot++ {
		sess.SendTruncated(packet.CharacterListEntry{Slot: slot}, emptySlotFrameSize)
	}
}

// HandleSelectFaction processes C_SELECT_FACTION. Only light and fury are
// accepted; anything else is ignored.
func HandleSelectFaction(sess Session, r *packet.Reader, deps *Deps) {
	p := playerOf(sess)
	if p == nil {
		sess.Close()
		return
	}
	faction := world.Faction(r.ReadU8())
	if r.Short() || !faction.Playable() {
		sess.Log().Info("faction selection rejected",
			zap.Uint32("user", p.userID),
			zap.Stringer("faction", faction),
		)
		return
	}

	if err := deps.Factions.Update(context.Background(), deps.Config.Server.WorldID, p.userID, faction); err != nil {
		deps.Log.Error("faction update failed",
			zap.Uint32("user", p.userID),
			zap.String("ip", sess.RemoteAddr()),
			zap.Error(err),
		)
		return
	}
	p.faction = faction
	sendCharacterScreen(sess, faction)
}
