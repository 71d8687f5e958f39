package system

import "time"

// Phase defines execution ordering within a single world tick.
type Phase int

const (
	PhaseRegister Phase = iota // 0: apply queued character registrations and unregistrations
	PhaseSchedule              // 1: fire due scheduler tasks
	PhaseUpdate                // 2: advance characters, npcs, mobs
	PhaseSync                  // 3: client synchronization
	PhaseCleanup               // 4: clear per-tick update flags
	PhaseEvents                // 5: dispatch world events emitted this tick

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseRegister:
		return "register"
	case PhaseSchedule:
		return "schedule"
	case PhaseUpdate:
		return "update"
	case PhaseSync:
		return "sync"
	case PhaseCleanup:
		return "cleanup"
	case PhaseEvents:
		return "events"
	default:
		return "unknown"
	}
}

// System is one step of the world tick.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Func adapts a plain function into a System.
type Func struct {
	P  Phase
	Fn func(dt time.Duration)
}

func (f Func) Phase() Phase            { return f.P }
func (f Func) Update(dt time.Duration) { f.Fn(dt) }
