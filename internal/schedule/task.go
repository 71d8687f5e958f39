package schedule

// Action is the work a task performs when it fires. A returned error is
// logged by the scheduler and does not affect other tasks.
type Action func() error

// Task is a unit of deferred work. Delays and periods are measured in ticks.
type Task struct {
	Name string

	delay  uint64
	period uint64 // 0 = one-shot
	action Action

	due       uint64
	seq       uint64
	index     int // heap position, -1 when not queued
	queued    bool
	cancelled bool
}

// After creates a one-shot task that fires delay ticks after it is scheduled.
func After(name string, delay uint64, fn Action) *Task {
	return &Task{Name: name, delay: delay, action: fn, index: -1}
}

// Every creates a repeating task that first fires delay ticks after it is
// scheduled and then every period ticks until cancelled. A zero period is
// treated as one tick.
func Every(name string, delay, period uint64, fn Action) *Task {
	if period == 0 {
		period = 1
	}
	return &Task{Name: name, delay: delay, period: period, action: fn, index: -1}
}

// Cancel stops the task from firing again. Safe to call from inside the
// task's own action.
func (t *Task) Cancel() { t.cancelled = true }

func (t *Task) Cancelled() bool { return t.cancelled }
func (t *Task) Periodic() bool  { return t.period > 0 }

// Due returns the tick the task is queued for. Meaningless when not queued.
func (t *Task) Due() uint64 { return t.due }

// taskQueue is a min-heap on (due, seq).
type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
