package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eden/gameserver/internal/command"
	"github.com/eden/gameserver/internal/config"
	"github.com/eden/gameserver/internal/data"
	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sentMsg struct {
	msg  packet.Message
	size int // -1 when sent in full
}

type fakeSession struct {
	mu         sync.Mutex
	sent       []sentMsg
	state      packet.SessionState
	attachment any
	onClose    []func()
	closed     bool
}

func (s *fakeSession) Send(msg packet.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMsg{msg: msg, size: -1})
}

func (s *fakeSession) SendTruncated(msg packet.Message, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMsg{msg: msg, size: size})
}

func (s *fakeSession) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, fn := range s.onClose {
		fn()
	}
}

func (s *fakeSession) RemoteAddr() string              { return "10.0.0.1:5000" }
func (s *fakeSession) State() packet.SessionState      { return s.state }
func (s *fakeSession) SetState(st packet.SessionState) { s.state = st }
func (s *fakeSession) Attach(v any)                    { s.attachment = v }
func (s *fakeSession) Attachment() any                 { return s.attachment }
func (s *fakeSession) OnClose(fn func())               { s.onClose = append(s.onClose, fn) }
func (s *fakeSession) Log() *zap.Logger                { return zap.NewNop() }

func (s *fakeSession) take() []sentMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sent
	s.sent = nil
	return out
}

type fakeFactions struct {
	factions map[uint32]world.Faction
	fetchErr error
	updates  int
}

func (f *fakeFactions) Fetch(_ context.Context, userID, _ uint32) (world.Faction, error) {
	if f.fetchErr != nil {
		return world.FactionNeither, f.fetchErr
	}
	if v, ok := f.factions[userID]; ok {
		return v, nil
	}
	return world.FactionNeither, nil
}

func (f *fakeFactions) Update(_ context.Context, _, userID uint32, v world.Faction) error {
	f.updates++
	f.factions[userID] = v
	return nil
}

type fixture struct {
	deps     *Deps
	reg      *packet.Registry
	factions *fakeFactions
	logs     *observer.ObservedLogs
}

func setup(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	cfg := config.Default()
	cfg.Network.ActionQueue = 2

	w := world.NewService(world.Options{Commands: command.NewManager('#', log), Log: log})
	require.NoError(t, w.LoadMap(&data.MapDefinition{ID: 1, Size: 1024}))

	factions := &fakeFactions{factions: map[uint32]world.Faction{7: world.FactionLight}}
	deps := &Deps{
		World:    w,
		Factions: factions,
		Config:   cfg,
		Spawn:    world.NewPosition(1, 100, 0, 100),
		Log:      log,
	}
	reg := packet.NewRegistry(zap.NewNop())
	RegisterAll(reg, deps)
	return &fixture{deps: deps, reg: reg, factions: factions, logs: logs}
}

func (f *fixture) dispatch(t *testing.T, sess *fakeSession, opcode uint16, body func(w *packet.Writer)) {
	t.Helper()
	w := packet.NewWriter()
	if body != nil {
		body(w)
	}
	require.NoError(t, f.reg.Dispatch(sess, sess.State(), opcode, w.Bytes()))
}

func (f *fixture) handshake(t *testing.T, sess *fakeSession, userID uint32) {
	f.dispatch(t, sess, packet.C_HANDSHAKE, func(w *packet.Writer) { w.WriteU32(userID) })
}

func (f *fixture) enterWorld(t *testing.T, sess *fakeSession, id uint32, name string) {
	f.dispatch(t, sess, packet.C_ENTER_WORLD, func(w *packet.Writer) {
		w.WriteU32(id)
		w.WriteString(name, packet.NameLength)
	})
}

func TestHandshakeWithFaction(t *testing.T) {
	f := setup(t)
	sess := &fakeSession{}
	f.handshake(t, sess, 7)

	out := sess.take()
	require.Len(t, out, 1+5)
	assert.Equal(t, sentMsg{msg: packet.AccountFactionNotify{Faction: 0}, size: -1}, out[0])
	for i, s := range out[1:] {
		assert.Equal(t, sentMsg{msg: packet.CharacterListEntry{Slot: uint8(i)}, size: 3}, s)
	}
	assert.Equal(t, packet.StateCharacterScreen, sess.State())
}

func TestHandshakeWithoutFactionStopsAtNotify(t *testing.T) {
	f := setup(t)
	sess := &fakeSession{}
	f.handshake(t, sess, 99)

	assert.Equal(t, []sentMsg{{msg: packet.AccountFactionNotify{Faction: 2}, size: -1}}, sess.take())
}

func TestHandshakeFetchFailureFallsBackToNeither(t *testing.T) {
	f := setup(t)
	f.factions.fetchErr = errors.New("db down")
	sess := &fakeSession{}
	f.handshake(t, sess, 7)

	assert.Equal(t, []sentMsg{{msg: packet.AccountFactionNotify{Faction: 2}, size: -1}}, sess.take())
	logged := f.logs.FilterMessage("faction fetch failed").AllUntimed()
	require.Len(t, logged, 1)
	assert.Equal(t, "10.0.0.1:5000", logged[0].ContextMap()["ip"])
	assert.EqualValues(t, 7, logged[0].ContextMap()["user"])
}

func TestShortHandshakeCloses(t *testing.T) {
	f := setup(t)
	sess := &fakeSession{}
	f.dispatch(t, sess, packet.C_HANDSHAKE, func(w *packet.Writer) { w.WriteU8(1) })
	assert.True(t, sess.closed)
}

func TestSelectFaction(t *testing.T) {
	f := setup(t)
	sess := &fakeSession{}
	f.handshake(t, sess, 99)
	sess.take()

	f.dispatch(t, sess, packet.C_SELECT_FACTION, func(w *packet.Writer) { w.WriteU8(2) })
	assert.Zero(t, f.factions.updates, "neither is not selectable")
	assert.Empty(t, sess.take())

	f.dispatch(t, sess, packet.C_SELECT_FACTION, func(w *packet.Writer) { w.WriteU8(1) })
	assert.Equal(t, world.FactionFury, f.factions.factions[99])
	out := sess.take()
	require.Len(t, out, 6)
	assert.Equal(t, packet.AccountFactionNotify{Faction: 1}, out[0].msg)
}

func TestEnterWorldMoveChatLogout(t *testing.T) {
	f := setup(t)
	w := f.deps.World
	sess := &fakeSession{}
	f.handshake(t, sess, 7)
	sess.take()

	f.enterWorld(t, sess, 501, "Kael")
	assert.Equal(t, packet.StateInWorld, sess.State())
	assert.Equal(t, []sentMsg{{msg: packet.CharacterDetails{CharacterID: 501, Map: 1, X: 100, Z: 100}, size: -1}}, sess.take())

	w.Tick(time.Millisecond)
	c := w.CharacterByName("kael")
	require.NotNil(t, c)
	assert.Equal(t, world.FactionLight, c.Faction())

	f.dispatch(t, sess, packet.C_MOVE, func(wr *packet.Writer) {
		wr.WriteU8(uint8(world.MovementRunning))
		wr.WriteF32(120)
		wr.WriteF32(0)
		wr.WriteF32(130)
	})
	assert.Equal(t, world.NewPosition(1, 100, 0, 100), c.Position(), "moves apply on the tick")
	w.Tick(time.Millisecond)
	assert.Equal(t, world.NewPosition(1, 120, 0, 130), c.Position())

	f.dispatch(t, sess, packet.C_CHAT, func(wr *packet.Writer) { wr.WriteText("hello") })
	w.Tick(time.Millisecond)
	assert.Equal(t, []sentMsg{{msg: packet.Chat{SenderID: 501, Name: "Kael", Text: "hello"}, size: -1}}, sess.take())

	f.dispatch(t, sess, packet.C_LOGOUT, nil)
	assert.True(t, sess.closed)
	w.Tick(time.Millisecond)
	assert.Zero(t, w.CharacterCount())
}

func TestChatCommandRunsOnTick(t *testing.T) {
	f := setup(t)
	w := f.deps.World
	var got []string
	w.Commands().Register(command.Command{Identifier: "ping", Handler: func(a command.Actor, args []string) error {
		got = append(got, a.Name())
		got = append(got, args...)
		return nil
	}})

	sess := &fakeSession{}
	f.handshake(t, sess, 7)
	f.enterWorld(t, sess, 501, "Kael")
	w.Tick(time.Millisecond)
	sess.take()

	f.dispatch(t, sess, packet.C_CHAT, func(wr *packet.Writer) { wr.WriteText(`#ping "a b"`) })
	assert.Empty(t, got)
	w.Tick(time.Millisecond)
	assert.Equal(t, []string{"Kael", "a b"}, got)
	assert.Empty(t, sess.take(), "commands are not broadcast")
}

func TestEnterWorldRequiresFaction(t *testing.T) {
	f := setup(t)
	sess := &fakeSession{}
	f.handshake(t, sess, 99)
	f.enterWorld(t, sess, 1, "Nobody")
	f.deps.World.Tick(time.Millisecond)

	assert.Zero(t, f.deps.World.CharacterCount())
	assert.Equal(t, packet.StateCharacterScreen, sess.State())
}

func TestDuplicateNameRejected(t *testing.T) {
	f := setup(t)
	first, second := &fakeSession{}, &fakeSession{}
	f.handshake(t, first, 7)
	f.enterWorld(t, first, 1, "Twin")
	f.deps.World.Tick(time.Millisecond)

	f.handshake(t, second, 7)
	second.take()
	f.enterWorld(t, second, 2, "twin")
	assert.Equal(t, []sentMsg{{msg: packet.SystemNotice{Text: "That character is already in the world."}, size: -1}}, second.take())
	assert.Equal(t, packet.StateCharacterScreen, second.State())
}

func TestDuplicateNameInSameTickRejected(t *testing.T) {
	f := setup(t)
	first, second := &fakeSession{}, &fakeSession{}
	f.handshake(t, first, 7)
	f.handshake(t, second, 7)
	first.take()
	second.take()

	f.enterWorld(t, first, 1, "Twin")
	f.enterWorld(t, second, 2, "TWIN")
	assert.Equal(t, []sentMsg{{msg: packet.SystemNotice{Text: "That character is already in the world."}, size: -1}}, second.take())

	f.deps.World.Tick(time.Millisecond)
	assert.Equal(t, 1, f.deps.World.CharacterCount())
	assert.Equal(t, uint32(1), uint32(f.deps.World.CharacterByName("twin").ID()))
}

func TestTakenCharacterIDCannotEvictOwner(t *testing.T) {
	f := setup(t)
	w := f.deps.World
	owner, other := &fakeSession{}, &fakeSession{}
	f.handshake(t, owner, 7)
	f.enterWorld(t, owner, 42, "Alice")
	w.Tick(time.Millisecond)
	alice := w.CharacterByName("alice")
	require.NotNil(t, alice)

	f.handshake(t, other, 7)
	other.take()
	f.enterWorld(t, other, 42, "Mallory")
	assert.Equal(t, []sentMsg{{msg: packet.SystemNotice{Text: "That character is already in the world."}, size: -1}}, other.take())
	assert.Equal(t, packet.StateCharacterScreen, other.State())

	other.Close()
	w.Tick(time.Millisecond)

	assert.Equal(t, 1, w.CharacterCount())
	assert.Same(t, alice, w.Registry().Resolve(alice.Key()))
	m, ok := w.Maps().Get(1)
	require.True(t, ok)
	assert.True(t, m.CellAt(alice.Position()).Contains(alice.Key()))
	assert.Equal(t, 1, f.logs.FilterMessage("character entering world").Len())
}

func TestActionQueueOverflowCloses(t *testing.T) {
	f := setup(t)
	sess := &fakeSession{}
	f.handshake(t, sess, 7)
	f.enterWorld(t, sess, 1, "Spam")

	for i := 0; i < 3; i++ {
		f.dispatch(t, sess, packet.C_CHAT, func(wr *packet.Writer) { wr.WriteText("hi") })
	}
	assert.True(t, sess.closed)
}

func TestStateGating(t *testing.T) {
	f := setup(t)
	sess := &fakeSession{}
	w := packet.NewWriter()
	w.WriteText("too early")
	err := f.reg.Dispatch(sess, sess.State(), packet.C_CHAT, w.Bytes())
	assert.ErrorIs(t, err, packet.ErrStateNotAllowed)
}
