package event

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

type handlerFunc func(ev any)

// Bus delivers world events one tick late. Emit appends to the pending
// queue; Swap moves the pending queue to the delivery queue and Dispatch
// hands each event, in emit order, to the subscribers of its type. Emit,
// Swap and Dispatch belong to the tick goroutine.
type Bus struct {
	log *zap.Logger

	mu       sync.RWMutex // guards handlers
	handlers map[reflect.Type][]handlerFunc

	pending  []any
	delivery []any
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		log:      log.Named("events"),
		handlers: make(map[reflect.Type][]handlerFunc),
	}
}

// Emit queues an event for the next Dispatch after a Swap.
func Emit[T any](b *Bus, ev T) {
	b.pending = append(b.pending, ev)
}

// Subscribe registers fn for every event of type T. Safe from any goroutine.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
	b.mu.Unlock()
}

// Swap makes the pending events deliverable and starts a fresh pending
// queue. Undelivered events from the previous swap are dropped.
func (b *Bus) Swap() {
	b.pending, b.delivery = b.delivery[:0], b.pending
}

// Dispatch delivers the swapped-in events and returns how many handler
// calls were made. A panicking handler is logged and skipped.
func (b *Bus) Dispatch() int {
	calls := 0
	for i, ev := range b.delivery {
		b.mu.RLock()
		hs := b.handlers[reflect.TypeOf(ev)]
		b.mu.RUnlock()
		for _, h := range hs {
			b.call(h, ev)
			calls++
		}
		b.delivery[i] = nil
	}
	b.delivery = b.delivery[:0]
	return calls
}

// Pending reports how many events wait for the next swap.
func (b *Bus) Pending() int { return len(b.pending) }

func (b *Bus) call(h handlerFunc, ev any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panic recovered",
				zap.String("event", reflect.TypeOf(ev).String()),
				zap.Any("panic", r),
			)
		}
	}()
	h(ev)
}
