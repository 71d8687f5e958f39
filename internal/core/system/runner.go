package system

import (
	"time"

	"go.uber.org/zap"
)

// Runner executes systems phase by phase each tick. Systems sharing a phase
// run in registration order. It records how long each phase took and warns
// when a whole tick runs longer than the interval it was given.
type Runner struct {
	log    *zap.Logger
	phases [phaseCount][]System
	last   [phaseCount]time.Duration
	total  time.Duration
	now    func() time.Time
}

func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log, now: time.Now}
}

// Register adds s to its phase. Systems with an unknown phase are rejected.
func (r *Runner) Register(s System) bool {
	p := s.Phase()
	if p < 0 || p >= phaseCount {
		r.log.Warn("system with unknown phase ignored", zap.Int("phase", int(p)))
		return false
	}
	r.phases[p] = append(r.phases[p], s)
	return true
}

func (r *Runner) Tick(dt time.Duration) {
	start := r.now()
	mark := start
	for p := Phase(0); p < phaseCount; p++ {
		for _, s := range r.phases[p] {
			s.Update(dt)
		}
		end := r.now()
		r.last[p] = end.Sub(mark)
		mark = end
	}
	r.total = mark.Sub(start)
	if dt > 0 && r.total > dt {
		r.log.Warn("tick overran",
			zap.Duration("took", r.total),
			zap.Duration("budget", dt),
			zap.Stringer("slowest", r.slowest()),
		)
	}
}

// TickPhase runs only the systems of the given phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase < 0 || phase >= phaseCount {
		return
	}
	for _, s := range r.phases[phase] {
		s.Update(dt)
	}
}

// LastTick reports the duration of the previous Tick.
func (r *Runner) LastTick() time.Duration { return r.total }

// LastPhase reports how long phase p took during the previous Tick.
func (r *Runner) LastPhase(p Phase) time.Duration {
	if p < 0 || p >= phaseCount {
		return 0
	}
	return r.last[p]
}

func (r *Runner) slowest() Phase {
	best := Phase(0)
	for p := Phase(1); p < phaseCount; p++ {
		if r.last[p] > r.last[best] {
			best = p
		}
	}
	return best
}
