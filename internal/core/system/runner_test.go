package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var order []string
	rec := func(name string, p Phase) System {
		return Func{P: p, Fn: func(time.Duration) { order = append(order, name) }}
	}

	r := NewRunner(nil)
	r.Register(rec("sync", PhaseSync))
	r.Register(rec("update-a", PhaseUpdate))
	r.Register(rec("register", PhaseRegister))
	r.Register(rec("update-b", PhaseUpdate))
	r.Register(rec("cleanup", PhaseCleanup))

	r.Tick(time.Hour)

	assert.Equal(t, []string{"register", "update-a", "update-b", "sync", "cleanup"}, order)
}

func TestRunnerTickPhase(t *testing.T) {
	calls := 0
	r := NewRunner(nil)
	r.Register(Func{P: PhaseSchedule, Fn: func(time.Duration) { calls++ }})
	r.Register(Func{P: PhaseUpdate, Fn: func(time.Duration) { t.Fatal("update must not run") }})

	r.TickPhase(PhaseSchedule, time.Millisecond)
	assert.Equal(t, 1, calls)
}

func TestRunnerRejectsUnknownPhase(t *testing.T) {
	r := NewRunner(nil)
	assert.False(t, r.Register(Func{P: phaseCount, Fn: func(time.Duration) {}}))
	assert.False(t, r.Register(Func{P: -1, Fn: func(time.Duration) {}}))
	assert.True(t, r.Register(Func{P: PhaseEvents, Fn: func(time.Duration) {}}))
}

// fakeClock advances by step every time it is read.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestRunnerRecordsPhaseDurationsAndWarnsOnOverrun(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewRunner(zap.New(core))
	r.now = fakeClock(10 * time.Millisecond)
	r.Register(Func{P: PhaseUpdate, Fn: func(time.Duration) {}})

	r.Tick(time.Second)
	// one clock read at start plus one per phase
	assert.Equal(t, time.Duration(phaseCount)*10*time.Millisecond, r.LastTick())
	assert.Equal(t, 10*time.Millisecond, r.LastPhase(PhaseUpdate))
	assert.Zero(t, logs.FilterMessage("tick overran").Len())

	r.Tick(20 * time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("tick overran").Len())
	assert.Zero(t, r.LastPhase(phaseCount))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "schedule", PhaseSchedule.String())
	assert.Equal(t, "events", PhaseEvents.String())
	assert.Equal(t, "unknown", phaseCount.String())
}
