package world

import (
	"fmt"

	"github.com/eden/gameserver/internal/net/packet"
	"go.uber.org/zap"
)

// Faction is the side an account plays on within one world.
type Faction uint8

const (
	FactionLight   Faction = 0
	FactionFury    Faction = 1
	FactionNeither Faction = 2
)

func (f Faction) String() string {
	switch f {
	case FactionLight:
		return "light"
	case FactionFury:
		return "fury"
	case FactionNeither:
		return "neither"
	default:
		return fmt.Sprintf("faction(%d)", uint8(f))
	}
}

// Playable reports whether f is a side a character can belong to.
func (f Faction) Playable() bool {
	return f == FactionLight || f == FactionFury
}

// MovementState is a character's current stance.
type MovementState uint8

const (
	MovementStanding MovementState = iota
	MovementSitting
	MovementWalking
	MovementRunning
	MovementJumping
	MovementBackflip
)

// Conn is the outbound half of a character's network session. Send must
// not block the tick goroutine.
type Conn interface {
	Send(msg packet.Message)
	Close()
	RemoteAddr() string
}

// Action is gameplay work queued by a session for the tick goroutine.
type Action func(w *Service, c *Character) error

// Character is a player-controlled entity backed by a network session.
type Character struct {
	EntityBase

	name     string
	userID   uint32
	faction  Faction
	conn     Conn
	movement MovementState
	actions  chan Action
}

// NewCharacter builds a character for a connected session. queueSize bounds
// the number of inbound actions buffered between ticks.
func NewCharacter(id EntityID, userID uint32, name string, faction Faction, pos Position, conn Conn, queueSize int) *Character {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Character{
		EntityBase: newEntityBase(TypeCharacter, id, pos),
		name:       name,
		userID:     userID,
		faction:    faction,
		conn:       conn,
		actions:    make(chan Action, queueSize),
	}
}

func (c *Character) Name() string                 { return c.name }
func (c *Character) UserID() uint32               { return c.userID }
func (c *Character) Faction() Faction             { return c.faction }
func (c *Character) Conn() Conn                   { return c.conn }
func (c *Character) MovementState() MovementState { return c.movement }

// Send forwards msg to the character's session, if it has one.
func (c *Character) Send(msg packet.Message) {
	if c.conn != nil {
		c.conn.Send(msg)
	}
}

// SendNotice sends a system message to the character.
func (c *Character) SendNotice(format string, args ...any) {
	c.Send(packet.SystemNotice{Text: fmt.Sprintf(format, args...)})
}

// SetMovementState updates the stance. Leaving a jump or backflip does not
// flag an update since the client already animated it.
func (c *Character) SetMovementState(s MovementState) {
	if c.movement != MovementJumping && c.movement != MovementBackflip {
		c.FlagUpdate(UpdateMovementState)
	}
	c.movement = s
}

// ResetMovementState returns a moving character to standing.
func (c *Character) ResetMovementState() {
	if c.movement == MovementStanding || c.movement == MovementSitting {
		return
	}
	c.movement = MovementStanding
}

// Enqueue hands an action to the tick goroutine. It never blocks and
// reports false when the queue is full.
func (c *Character) Enqueue(a Action) bool {
	select {
	case c.actions <- a:
		return true
	default:
		return false
	}
}

// Tick drains the actions queued before this tick started. A failing action
// is logged and the rest still run.
func (c *Character) Tick(w *Service) error {
	n := len(c.actions)
	for i := 0; i < n; i++ {
		a := <-c.actions
		if err := a(w, c); err != nil {
			w.log.Debug("character action failed",
				zap.String("character", c.name),
				zap.Error(err),
			)
		}
	}
	return nil
}
