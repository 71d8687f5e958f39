package schedule

import (
	"container/heap"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrNilAction        = errors.New("schedule: task has no action")
	ErrAlreadyScheduled = errors.New("schedule: task already scheduled")
	ErrCancelled        = errors.New("schedule: task was cancelled")
)

// Scheduler is a tick-driven queue of deferred and periodic tasks.
// Tick-goroutine only, no locks.
type Scheduler struct {
	now     uint64
	seq     uint64
	queue   taskQueue
	held    []*Task // scheduled while a pass is running
	running bool
	log     *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		queue: make(taskQueue, 0, 64),
		log:   log,
	}
}

// Now returns the number of completed ticks.
func (s *Scheduler) Now() uint64 { return s.now }

// Len returns the number of queued tasks that have not been cancelled.
func (s *Scheduler) Len() int {
	n := 0
	for _, t := range s.queue {
		if !t.cancelled {
			n++
		}
	}
	for _, t := range s.held {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Schedule queues t to fire delay ticks from now. Tasks scheduled from inside
// a running task only become eligible on the following Tick.
func (s *Scheduler) Schedule(t *Task) error {
	if t.action == nil {
		return ErrNilAction
	}
	if t.queued {
		return fmt.Errorf("%w: %s", ErrAlreadyScheduled, t.Name)
	}
	if t.cancelled {
		return fmt.Errorf("%w: %s", ErrCancelled, t.Name)
	}
	t.due = s.now + t.delay
	s.enqueue(t)
	return nil
}

func (s *Scheduler) enqueue(t *Task) {
	s.seq++
	t.seq = s.seq
	t.queued = true
	if s.running {
		s.held = append(s.held, t)
		return
	}
	heap.Push(&s.queue, t)
}

// Tick advances the clock by one and fires every task whose due tick has
// been reached, earliest first and in submission order for equal due ticks.
func (s *Scheduler) Tick() {
	s.now++
	s.running = true
	for len(s.queue) > 0 && s.queue[0].due <= s.now {
		t := heap.Pop(&s.queue).(*Task)
		t.queued = false
		if t.cancelled {
			continue
		}
		s.run(t)
		if t.period > 0 && !t.cancelled {
			t.due = s.now + t.period
			s.enqueue(t)
		}
	}
	s.running = false

	for _, t := range s.held {
		heap.Push(&s.queue, t)
	}
	clear(s.held)
	s.held = s.held[:0]
}

// run executes one task, recovering from panics so a single task cannot
// stop the rest of the pass.
func (s *Scheduler) run(t *Task) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("task panic recovered",
				zap.String("task", t.Name),
				zap.Any("panic", rec),
			)
		}
	}()
	if err := t.action(); err != nil {
		s.log.Warn("task failed", zap.String("task", t.Name), zap.Error(err))
	}
}
