package world

// Synchronizer pushes the outcome of a tick to connected clients. It is
// called exactly once per tick, after every entity has advanced and before
// update flags are cleared.
type Synchronizer interface {
	Synchronize(w *Service, chars []*Character)
}

// SynchronizerFunc adapts a function into a Synchronizer.
type SynchronizerFunc func(w *Service, chars []*Character)

func (f SynchronizerFunc) Synchronize(w *Service, chars []*Character) { f(w, chars) }
