package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func record(log *[]string, name string) Action {
	return func() error {
		*log = append(*log, name)
		return nil
	}
}

func TestTasksFireInDueOrder(t *testing.T) {
	s := New(zap.NewNop())
	var fired []string

	require.NoError(t, s.Schedule(After("late", 3, record(&fired, "late"))))
	require.NoError(t, s.Schedule(After("early", 1, record(&fired, "early"))))
	require.NoError(t, s.Schedule(After("mid", 2, record(&fired, "mid"))))

	// advance the clock without firing by queueing nothing due yet
	s.Tick()
	assert.Equal(t, []string{"early"}, fired)
	s.Tick()
	s.Tick()
	assert.Equal(t, []string{"early", "mid", "late"}, fired)
	assert.Zero(t, s.Len())
}

func TestEqualDueTicksFireInSubmissionOrder(t *testing.T) {
	s := New(zap.NewNop())
	var fired []string
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Schedule(After(name, 2, record(&fired, name))))
	}
	s.Tick()
	s.Tick()
	assert.Equal(t, []string{"a", "b", "c", "d"}, fired)
}

func TestDifferentDueTicksSamePass(t *testing.T) {
	s := New(zap.NewNop())
	var fired []string
	require.NoError(t, s.Schedule(After("t2", 5, record(&fired, "t2"))))
	require.NoError(t, s.Schedule(After("t1", 4, record(&fired, "t1"))))

	// Both become due before this pass runs.
	s.now = 10
	s.Tick()
	assert.Equal(t, []string{"t1", "t2"}, fired)
}

func TestPeriodicTaskRequeues(t *testing.T) {
	s := New(zap.NewNop())
	count := 0
	task := Every("pulse", 1, 2, func() error {
		count++
		return nil
	})
	require.NoError(t, s.Schedule(task))

	for i := 0; i < 5; i++ {
		s.Tick()
	}
	// fires on ticks 1, 3, 5
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, s.Len())

	task.Cancel()
	for i := 0; i < 4; i++ {
		s.Tick()
	}
	assert.Equal(t, 3, count)
	assert.Zero(t, s.Len())
}

func TestPeriodicTaskCanCancelItself(t *testing.T) {
	s := New(zap.NewNop())
	count := 0
	var task *Task
	task = Every("thrice", 0, 1, func() error {
		count++
		if count == 3 {
			task.Cancel()
		}
		return nil
	})
	require.NoError(t, s.Schedule(task))
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	assert.Equal(t, 3, count)
}

func TestChainedTaskRunsOnNextTick(t *testing.T) {
	s := New(zap.NewNop())
	var fired []string
	require.NoError(t, s.Schedule(After("parent", 0, func() error {
		fired = append(fired, "parent")
		return s.Schedule(After("child", 0, record(&fired, "child")))
	})))

	s.Tick()
	assert.Equal(t, []string{"parent"}, fired, "chained work must not run in the same pass")
	assert.Equal(t, 1, s.Len())

	s.Tick()
	assert.Equal(t, []string{"parent", "child"}, fired)
}

func TestSelfReschedulingTaskDoesNotLoop(t *testing.T) {
	s := New(zap.NewNop())
	runs := 0
	var again Action
	again = func() error {
		runs++
		return s.Schedule(After("again", 0, again))
	}
	require.NoError(t, s.Schedule(After("again", 0, again)))

	s.Tick()
	s.Tick()
	s.Tick()
	assert.Equal(t, 3, runs)
}

func TestTaskErrorsAndPanicsAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(zap.New(core))
	var fired []string

	require.NoError(t, s.Schedule(After("boom", 1, func() error { panic("bad task") })))
	require.NoError(t, s.Schedule(After("fail", 1, func() error { return errors.New("nope") })))
	require.NoError(t, s.Schedule(After("ok", 1, record(&fired, "ok"))))

	require.NotPanics(t, s.Tick)
	assert.Equal(t, []string{"ok"}, fired)
	assert.Equal(t, 1, logs.FilterMessage("task panic recovered").Len())
	assert.Equal(t, 1, logs.FilterMessage("task failed").Len())
}

func TestScheduleRejectsInvalidTasks(t *testing.T) {
	s := New(zap.NewNop())

	assert.ErrorIs(t, s.Schedule(After("nil", 1, nil)), ErrNilAction)

	task := After("twice", 5, func() error { return nil })
	require.NoError(t, s.Schedule(task))
	assert.ErrorIs(t, s.Schedule(task), ErrAlreadyScheduled)

	cancelled := After("cancelled", 1, func() error { return nil })
	cancelled.Cancel()
	assert.ErrorIs(t, s.Schedule(cancelled), ErrCancelled)
}

func TestOneShotTaskCanBeScheduledAgainAfterFiring(t *testing.T) {
	s := New(zap.NewNop())
	count := 0
	task := After("reuse", 1, func() error {
		count++
		return nil
	})
	require.NoError(t, s.Schedule(task))
	s.Tick()
	require.NoError(t, s.Schedule(task))
	s.Tick()
	assert.Equal(t, 2, count)
}
