package handler

import (
	"context"

	"github.com/eden/gameserver/internal/config"
	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
	"go.uber.org/zap"
)

// Session is the connection surface handlers need. *net.Session
// implements it.
type Session interface {
	world.Conn
	SendTruncated(msg packet.Message, size int)
	State() packet.SessionState
	SetState(st packet.SessionState)
	Attach(v any)
	Attachment() any
	OnClose(fn func())
	Log() *zap.Logger
}

// FactionStore persists each account's faction per world.
// *persist.FactionRepo implements it.
type FactionStore interface {
	Fetch(ctx context.Context, userID, worldID uint32) (world.Faction, error)
	Update(ctx context.Context, worldID, userID uint32, f world.Faction) error
}

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	World    *world.Service
	Factions FactionStore
	Config   *config.Config
	Spawn    world.Position // where entering characters appear
	Log      *zap.Logger
}

// player is the per-session state handlers keep on the session.
type player struct {
	userID  uint32
	faction world.Faction
	char    *world.Character
}

func playerOf(sess Session) *player {
	p, _ := sess.Attachment().(*player)
	return p
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_HANDSHAKE,
		[]packet.SessionState{packet.StateConnected},
		func(sess any, r *packet.Reader) {
			HandleHandshake(sess.(Session), r, deps)
		},
	)

	// Character screen
	reg.Register(packet.C_SELECT_FACTION,
		[]packet.SessionState{packet.StateCharacterScreen},
		func(sess any, r *packet.Reader) {
			HandleSelectFaction(sess.(Session), r, deps)
		},
	)
	reg.Register(packet.C_ENTER_WORLD,
		[]packet.SessionState{packet.StateCharacterScreen},
		func(sess any, r *packet.Reader) {
			HandleEnterWorld(sess.(Session), r, deps)
		},
	)

	// In world
	inWorld := []packet.SessionState{packet.StateInWorld}
	reg.Register(packet.C_MOVE, inWorld,
		func(sess any, r *packet.Reader) {
			HandleMove(sess.(Session), r, deps)
		},
	)
	reg.Register(packet.C_CHAT, inWorld,
		func(sess any, r *packet.Reader) {
			HandleChat(sess.(Session), r, deps)
		},
	)

	reg.Register(packet.C_LOGOUT,
		[]packet.SessionState{packet.StateCharacterScreen, packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandleLogout(sess.(Session), r, deps)
		},
	)
}
