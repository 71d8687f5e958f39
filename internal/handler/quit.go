package handler

import (
	"github.com/eden/gameserver/internal/net/packet"
	"go.uber.org/zap"
)

// HandleLogout processes C_LOGOUT. Cleanup, including unregistering the
// character, happens in the session's close callbacks.
func HandleLogout(sess Session, _ *packet.Reader, deps *Deps) {
	var user uint32
	if p := playerOf(sess); p != nil {
		user = p.userID
	}
	sess.Log().Info("logout", zap.Uint32("user", user))
	sess.Close()
}
