package world

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/eden/gameserver/internal/command"
	"github.com/eden/gameserver/internal/core/event"
	"github.com/eden/gameserver/internal/core/system"
	"github.com/eden/gameserver/internal/data"
	"github.com/eden/gameserver/internal/schedule"
	"go.uber.org/zap"
)

var (
	ErrUnknownMap         = errors.New("world: unknown map")
	ErrNotRegistered      = errors.New("world: entity not registered")
	ErrCharacterIDInUse   = errors.New("world: character id in use")
	ErrCharacterNameInUse = errors.New("world: character name in use")
)

// Options configures a Service.
type Options struct {
	Commands     *command.Manager
	Synchronizer Synchronizer
	Bus          *event.Bus
	Log          *zap.Logger
}

// pendingOp is a queued character registration or, with leave set, an
// unregistration.
type pendingOp struct {
	c     *Character
	leave bool
}

// Service owns the simulated world and advances it one tick at a time.
//
// Character registration is the only entry point safe to call from other
// goroutines. Everything else, including every accessor not documented
// otherwise, belongs to the tick goroutine.
type Service struct {
	log      *zap.Logger
	maps     *MapRepository
	reg      *Registry
	sched    *schedule.Scheduler
	commands *command.Manager
	syncer   Synchronizer
	bus      *event.Bus
	runner   *system.Runner

	// mu guards pending, the reservations and writes to reg.Characters.
	mu      sync.Mutex
	pending []pendingOp
	ids     map[EntityID]*Character
	names   map[string]*Character // lower-cased

	ticks uint64
}

func NewService(opts Options) *Service {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	commands := opts.Commands
	if commands == nil {
		commands = command.NewManager('#', log)
	}
	bus := opts.Bus
	if bus == nil {
		bus = event.NewBus(log)
	}
	s := &Service{
		log:      log.Named("world"),
		maps:     NewMapRepository(),
		reg:      NewRegistry(),
		sched:    schedule.New(log),
		commands: commands,
		syncer:   opts.Synchronizer,
		bus:      bus,
		runner:   system.NewRunner(log.Named("tick")),
		ids:      make(map[EntityID]*Character),
		names:    make(map[string]*Character),
	}
	s.runner.Register(system.Func{P: system.PhaseRegister, Fn: func(time.Duration) { s.finaliseCharacters() }})
	s.runner.Register(system.Func{P: system.PhaseSchedule, Fn: func(time.Duration) { s.sched.Tick() }})
	s.runner.Register(system.Func{P: system.PhaseUpdate, Fn: func(time.Duration) { s.advanceEntities() }})
	s.runner.Register(system.Func{P: system.PhaseSync, Fn: func(time.Duration) { s.synchronize() }})
	s.runner.Register(system.Func{P: system.PhaseCleanup, Fn: func(time.Duration) { s.clearFlags() }})
	s.runner.Register(system.Func{P: system.PhaseEvents, Fn: func(time.Duration) { s.dispatchEvents() }})
	return s
}

func (s *Service) Log() *zap.Logger               { return s.log }
func (s *Service) Maps() *MapRepository           { return s.maps }
func (s *Service) Registry() *Registry            { return s.reg }
func (s *Service) Commands() *command.Manager     { return s.commands }
func (s *Service) Scheduler() *schedule.Scheduler { return s.sched }
func (s *Service) Bus() *event.Bus                { return s.bus }
func (s *Service) Ticks() uint64                  { return s.ticks }

// LastTickDuration reports how long the previous Tick took.
func (s *Service) LastTickDuration() time.Duration { return s.runner.LastTick() }

// LoadMap builds the map described by def and spawns its npcs and mobs.
func (s *Service) LoadMap(def *data.MapDefinition) error {
	m, err := NewMap(def.ID, def.Size, s.reg)
	if err != nil {
		return err
	}
	if err := s.maps.Add(m); err != nil {
		return err
	}
	for _, g := range def.Npcs {
		for _, p := range g.Positions {
			npc := NewNpc(NextNpcID(), g.Type, g.TypeID, NewPosition(def.ID, p.X, p.Y, p.Z))
			if err := s.RegisterNpc(npc); err != nil {
				return err
			}
		}
	}
	for _, g := range def.Mobs {
		for _, p := range g.Positions {
			mob := NewMob(NextMobID(), g.TypeID, NewPosition(def.ID, p.X, p.Y, p.Z))
			if err := s.RegisterMob(mob); err != nil {
				return err
			}
		}
	}
	s.log.Info("map loaded",
		zap.Uint16("map", def.ID),
		zap.String("name", def.Name),
		zap.Int("size", def.Size),
		zap.Int("npcs", countPositions(def.Npcs)),
		zap.Int("mobs", countPositions(def.Mobs)),
	)
	return nil
}

func countPositions(groups []data.SpawnGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Positions)
	}
	return n
}

// RegisterCharacter queues c to enter the world at the start of the next
// tick. It reserves nothing: a character whose id is live under another
// object when the queue is applied is dropped. Safe to call from any
// goroutine.
func (s *Service) RegisterCharacter(c *Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingOp{c: c})
}

// TryRegisterCharacter queues c like RegisterCharacter, but first reserves
// its id and name. It fails when another character holds either, live or
// queued. The reservation is released when c leaves the world. Safe to call
// from any goroutine.
func (s *Service) TryRegisterCharacter(c *Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, key := c.ID(), strings.ToLower(c.name)
	if o, ok := s.ids[id]; ok && o != c {
		return fmt.Errorf("%w: %d", ErrCharacterIDInUse, id)
	}
	if o, ok := s.reg.Characters.Get(id); ok && o != c {
		return fmt.Errorf("%w: %d", ErrCharacterIDInUse, id)
	}
	if o, ok := s.names[key]; ok && o != c {
		return fmt.Errorf("%w: %s", ErrCharacterNameInUse, c.name)
	}
	taken := false
	s.reg.Characters.Each(func(o *Character) bool {
		taken = o != c && strings.EqualFold(o.name, c.name)
		return !taken
	})
	if taken {
		return fmt.Errorf("%w: %s", ErrCharacterNameInUse, c.name)
	}

	s.ids[id] = c
	s.names[key] = c
	s.pending = append(s.pending, pendingOp{c: c})
	return nil
}

// UnregisterCharacter queues c to leave the world at the start of the next
// tick. Safe to call from any goroutine.
func (s *Service) UnregisterCharacter(c *Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingOp{c: c, leave: true})
}

// finaliseCharacters applies queued registrations and unregistrations in
// submission order. Operations only ever act on the object they were queued
// for, never on another character sharing its id.
func (s *Service) finaliseCharacters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.pending {
		if op.leave {
			s.removeCharacter(op.c)
		} else {
			s.addCharacter(op.c)
		}
		s.pending[i] = pendingOp{}
	}
	s.pending = s.pending[:0]
}

func (s *Service) addCharacter(c *Character) {
	if live, ok := s.reg.Characters.Get(c.ID()); ok {
		if live != c {
			s.log.Warn("character id already in use",
				zap.Uint32("id", uint32(c.ID())),
				zap.String("character", c.name),
				zap.String("live", live.name),
			)
			s.release(c)
		}
		return
	}
	m, ok := s.maps.Get(c.pos.Map)
	if !ok {
		s.log.Warn("character registered on unknown map",
			zap.String("character", c.name),
			zap.Uint16("map", c.pos.Map),
		)
		s.release(c)
		return
	}
	s.reg.Characters.Add(c)
	m.Add(c)
	event.Emit(s.bus, event.CharacterEntered{CharacterID: uint32(c.ID()), Name: c.name, MapID: m.id})
}

func (s *Service) removeCharacter(c *Character) {
	defer s.release(c)
	if live, ok := s.reg.Characters.Get(c.ID()); !ok || live != c {
		return
	}
	s.reg.Characters.Remove(c.ID())
	if m, ok := s.maps.Get(c.pos.Map); ok {
		m.Remove(c)
	}
	event.Emit(s.bus, event.CharacterLeft{CharacterID: uint32(c.ID()), Name: c.name})
}

// release drops the reservations held by c.
func (s *Service) release(c *Character) {
	if s.ids[c.ID()] == c {
		delete(s.ids, c.ID())
	}
	key := strings.ToLower(c.name)
	if s.names[key] == c {
		delete(s.names, key)
	}
}

// RegisterNpc places n in the world immediately. Registering a live npc is a
// no-op.
func (s *Service) RegisterNpc(n *Npc) error {
	return registerEntity(s, s.reg.Npcs, n)
}

func (s *Service) UnregisterNpc(n *Npc) {
	unregisterEntity(s, s.reg.Npcs, n)
}

// RegisterMob places m in the world immediately.
func (s *Service) RegisterMob(m *Mob) error {
	return registerEntity(s, s.reg.Mobs, m)
}

func (s *Service) UnregisterMob(m *Mob) {
	unregisterEntity(s, s.reg.Mobs, m)
}

// RegisterItem drops g on its map immediately.
func (s *Service) RegisterItem(g *GroundItem) error {
	return registerEntity(s, s.reg.Items, g)
}

// UnregisterItem removes g and cancels its pending despawn.
func (s *Service) UnregisterItem(g *GroundItem) {
	if g.despawn != nil {
		g.despawn.Cancel()
		g.despawn = nil
	}
	unregisterEntity(s, s.reg.Items, g)
}

func registerEntity[T Entity](s *Service, c *Container[T], e T) error {
	pos := e.Position()
	m, ok := s.maps.Get(pos.Map)
	if !ok {
		return fmt.Errorf("register %s: %w: %d", e.Key(), ErrUnknownMap, pos.Map)
	}
	if !c.Add(e) {
		return nil
	}
	m.Add(e)
	event.Emit(s.bus, event.EntitySpawned{Kind: e.Type().String(), ID: uint32(e.ID()), MapID: m.id})
	return nil
}

func unregisterEntity[T Entity](s *Service, c *Container[T], e T) {
	if _, ok := c.Remove(e.ID()); !ok {
		return
	}
	if m, ok := s.maps.Get(e.Position().Map); ok {
		m.Remove(e)
	}
	event.Emit(s.bus, event.EntityDespawned{Kind: e.Type().String(), ID: uint32(e.ID())})
}

// Schedule queues t on the world scheduler.
func (s *Service) Schedule(t *schedule.Task) error {
	return s.sched.Schedule(t)
}

// MoveEntity relocates e, possibly onto another map, and flags the move for
// synchronization. Entities not yet in the world only have their position
// updated.
func (s *Service) MoveEntity(e Entity, pos Position) error {
	dst, ok := s.maps.Get(pos.Map)
	if !ok {
		return fmt.Errorf("move %s: %w: %d", e.Key(), ErrUnknownMap, pos.Map)
	}
	b := e.base()
	if !b.placed {
		b.pos = dst.Adjust(pos)
		return nil
	}
	if src, ok := s.maps.Get(b.pos.Map); ok {
		src.Remove(e)
	}
	b.pos = pos
	dst.Add(e)
	b.FlagUpdate(UpdatePosition)
	return nil
}

// FindEntity looks for an entity of the given type and id near pos.
func (s *Service) FindEntity(pos Position, id EntityID, typ EntityType) Entity {
	m, ok := s.maps.Get(pos.Map)
	if !ok {
		return nil
	}
	return m.FindEntity(pos, id, typ)
}

// EntitiesNear returns every entity in the neighbourhood of pos.
func (s *Service) EntitiesNear(pos Position) []Entity {
	m, ok := s.maps.Get(pos.Map)
	if !ok {
		return nil
	}
	return m.EntitiesNear(pos)
}

// CharacterByName finds a live character, ignoring case. Safe to call from
// any goroutine.
func (s *Service) CharacterByName(name string) *Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *Character
	s.reg.Characters.Each(func(c *Character) bool {
		if strings.EqualFold(c.name, name) {
			found = c
			return false
		}
		return true
	})
	return found
}

// CharacterCount returns the number of live characters. Safe to call from
// any goroutine.
func (s *Service) CharacterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Characters.Len()
}

// Characters returns a snapshot of the live characters. Safe to call from
// any goroutine.
func (s *Service) Characters() []*Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Characters.Snapshot()
}

// Tick advances the world by one step.
func (s *Service) Tick(dt time.Duration) {
	s.ticks++
	s.runner.Tick(dt)
}

// advanceEntities ticks every live character, npc and mob. A failing entity
// is logged and does not stop the others.
func (s *Service) advanceEntities() {
	for _, c := range s.reg.Characters.Snapshot() {
		s.advance(c)
	}
	for _, n := range s.reg.Npcs.Snapshot() {
		s.advance(n)
	}
	for _, m := range s.reg.Mobs.Snapshot() {
		if s.reg.Mobs.Contains(m.ID()) {
			s.advance(m)
		}
	}
}

func (s *Service) advance(t Ticker) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("entity tick panic recovered",
				zap.Stringer("entity", t.Key()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	if err := t.Tick(s); err != nil {
		s.log.Warn("entity tick failed",
			zap.Stringer("entity", t.Key()),
			zap.Error(err),
		)
	}
}

func (s *Service) synchronize() {
	if s.syncer == nil {
		return
	}
	s.syncer.Synchronize(s, s.reg.Characters.Snapshot())
}

func (s *Service) clearFlags() {
	s.reg.Characters.Each(func(c *Character) bool {
		c.clearFlags()
		c.ResetMovementState()
		return true
	})
	s.reg.Npcs.Each(func(n *Npc) bool { n.clearFlags(); return true })
	s.reg.Mobs.Each(func(m *Mob) bool { m.clearFlags(); return true })
	s.reg.Items.Each(func(g *GroundItem) bool { g.clearFlags(); return true })
}

func (s *Service) dispatchEvents() {
	s.bus.Swap()
	s.bus.Dispatch()
}
