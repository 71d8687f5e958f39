package packet

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateConnected       SessionState = iota // awaiting handshake
	StateCharacterScreen                     // faction known, choosing a character
	StateInWorld                             // character registered with the world
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateCharacterScreen:
		return "CharacterScreen"
	case StateInWorld:
		return "InWorld"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

var (
	ErrStateNotAllowed = errors.New("opcode not allowed in session state")
	ErrHandlerPanic    = errors.New("handler panic")
)

// HandlerFunc is the callback signature for packet handlers.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps opcodes to handlers with state-based access control.
type Registry struct {
	handlers map[uint16]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[uint16]*handlerEntry),
		log:      log,
	}
}

// Register maps an opcode to a handler, restricted to the given session states.
func (reg *Registry) Register(opcode uint16, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[opcode] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Dispatch validates the session state and calls the handler for opcode.
// Unknown opcodes are ignored.
func (reg *Registry) Dispatch(sess any, state SessionState, opcode uint16, body []byte) error {
	reg.log.Debug("packet received",
		zap.Uint16("opcode", opcode),
		zap.Int("size", len(body)),
		zap.Stringer("state", state),
	)

	entry, ok := reg.handlers[opcode]
	if !ok {
		reg.log.Debug("unknown opcode", zap.Uint16("opcode", opcode), zap.Stringer("state", state))
		return nil
	}

	if !entry.allowedStates[state] {
		reg.log.Warn("opcode not allowed in state",
			zap.Uint16("opcode", opcode),
			zap.Stringer("state", state),
		)
		return fmt.Errorf("%w: opcode 0x%04X in %s", ErrStateNotAllowed, opcode, state)
	}

	return reg.safeCall(entry.fn, sess, NewReader(body), opcode)
}

// safeCall executes a handler with panic recovery so a single bad packet
// cannot take down the session's reader goroutine.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, opcode uint16) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint16("opcode", opcode),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("%w: opcode 0x%04X: %v", ErrHandlerPanic, opcode, rec)
		}
	}()
	fn(sess, r)
	return nil
}
