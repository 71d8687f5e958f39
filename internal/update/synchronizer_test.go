package update

import (
	"testing"
	"time"

	"github.com/eden/gameserver/internal/data"
	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureConn struct {
	sent []packet.Message
}

func (c *captureConn) Send(msg packet.Message) { c.sent = append(c.sent, msg) }
func (c *captureConn) Close()                  {}
func (c *captureConn) RemoteAddr() string      { return "test" }

func (c *captureConn) take() []packet.Message {
	out := c.sent
	c.sent = nil
	return out
}

const tick = 100 * time.Millisecond

func newWorld(t *testing.T) (*world.Service, *ClientSynchronizer) {
	t.Helper()
	syncer := NewClientSynchronizer()
	w := world.NewService(world.Options{Synchronizer: syncer})
	require.NoError(t, w.LoadMap(&data.MapDefinition{ID: 1, Size: 1024}))
	return w, syncer
}

func TestAppearMoveDisappear(t *testing.T) {
	w, syncer := newWorld(t)
	npc := world.NewNpc(500, 1, 77, world.NewPosition(1, 110, 0, 100))
	require.NoError(t, w.RegisterNpc(npc))

	conn := &captureConn{}
	viewer := world.NewCharacter(1, 1, "Viewer", world.FactionLight, world.NewPosition(1, 100, 0, 100), conn, 4)
	w.RegisterCharacter(viewer)
	w.Tick(tick)

	assert.Equal(t, []packet.Message{
		packet.EntityAppear{Kind: uint8(world.TypeNpc), ID: 500, TypeID: 77, X: 110, Z: 100},
	}, conn.take())
	assert.True(t, syncer.Known(viewer.ID(), npc.Key()))

	// Nothing changed: nothing is sent.
	w.Tick(tick)
	assert.Empty(t, conn.take())

	// A known entity moves within range.
	require.True(t, viewer.Enqueue(func(w *world.Service, _ *world.Character) error {
		return w.MoveEntity(npc, world.NewPosition(1, 120, 0, 100))
	}))
	w.Tick(tick)
	assert.Equal(t, []packet.Message{
		packet.EntityMove{Kind: uint8(world.TypeNpc), ID: 500, X: 120, Z: 100},
	}, conn.take())

	// It leaves the neighbourhood.
	require.True(t, viewer.Enqueue(func(w *world.Service, _ *world.Character) error {
		return w.MoveEntity(npc, world.NewPosition(1, 900, 0, 900))
	}))
	w.Tick(tick)
	assert.Equal(t, []packet.Message{
		packet.EntityDisappear{Kind: uint8(world.TypeNpc), ID: 500},
	}, conn.take())
	assert.False(t, syncer.Known(viewer.ID(), npc.Key()))
}

func TestCharactersSeeEachOther(t *testing.T) {
	w, syncer := newWorld(t)
	aConn, bConn := &captureConn{}, &captureConn{}
	a := world.NewCharacter(1, 1, "Ayla", world.FactionLight, world.NewPosition(1, 50, 0, 50), aConn, 4)
	b := world.NewCharacter(2, 2, "Bren", world.FactionFury, world.NewPosition(1, 60, 0, 50), bConn, 4)
	w.RegisterCharacter(a)
	w.RegisterCharacter(b)
	w.Tick(tick)

	assert.Equal(t, []packet.Message{
		packet.EntityAppear{Kind: uint8(world.TypeCharacter), ID: 2, X: 60, Z: 50, Name: "Bren"},
	}, aConn.take())
	assert.Equal(t, []packet.Message{
		packet.EntityAppear{Kind: uint8(world.TypeCharacter), ID: 1, X: 50, Z: 50, Name: "Ayla"},
	}, bConn.take())

	require.True(t, b.Enqueue(func(w *world.Service, c *world.Character) error {
		c.SetMovementState(world.MovementRunning)
		return w.MoveEntity(c, world.NewPosition(1, 70, 0, 50))
	}))
	w.Tick(tick)
	assert.Equal(t, []packet.Message{
		packet.EntityMove{Kind: uint8(world.TypeCharacter), ID: 2, X: 70, Z: 50, Running: true},
		packet.MovementState{CharacterID: 2, State: uint8(world.MovementRunning)},
	}, aConn.take())
	assert.Empty(t, bConn.take(), "own moves are not echoed")

	w.UnregisterCharacter(b)
	w.Tick(tick)
	assert.Equal(t, []packet.Message{
		packet.EntityDisappear{Kind: uint8(world.TypeCharacter), ID: 2},
	}, aConn.take())
	assert.NotContains(t, syncer.known, b.ID(), "known sets of departed characters are dropped")
}
