package store

// Status is the lifecycle state of one slice.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusLoading    Status = "loading"
	StatusCreating   Status = "creating"
	StatusUpdating   Status = "updating"
	StatusDeleting   Status = "deleting"
	StatusReordering Status = "reordering"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Busy reports whether an operation is in progress.
func (s Status) Busy() bool {
	switch s {
	case StatusLoading, StatusCreating, StatusUpdating, StatusDeleting, StatusReordering:
		return true
	}
	return false
}

// Slice is the status machine for one list resource. Data is nil until the
// first successful fetch. Data is never modified in place, so a copied Slice
// may be read without holding the store lock.
type Slice[E any] struct {
	Status  Status
	Data    []E
	Error   string
	Version uint64 // bumped on every change to Data

	ticket uint64 // latest fetch ticket issued
}

// NewSlice returns an idle, empty slice.
func NewSlice[E any]() Slice[E] {
	return Slice[E]{Status: StatusIdle}
}

// Begin enters op's busy state. Data and Error are left as they are.
func (s *Slice[E]) Begin(op Status) {
	s.Status = op
}

// Issue starts a new fetch generation and returns its ticket. Completions
// carrying an older ticket are stale.
func (s *Slice[E]) Issue() uint64 {
	s.ticket++
	return s.ticket
}

// Current reports whether ticket is the latest issued.
func (s *Slice[E]) Current(ticket uint64) bool {
	return s.ticket == ticket
}

// Succeed marks the operation done without touching Data.
func (s *Slice[E]) Succeed() {
	s.Status = StatusSucceeded
	s.Error = ""
}

// Replace installs data and marks the operation done.
func (s *Slice[E]) Replace(data []E) {
	s.set(data)
	s.Succeed()
}

// Apply replaces Data with fn(Data) and marks the operation done.
func (s *Slice[E]) Apply(fn func([]E) []E) {
	s.set(fn(s.Data))
	s.Succeed()
}

// Fail records msg. Data keeps whatever it held before the operation.
func (s *Slice[E]) Fail(msg string) {
	s.Status = StatusFailed
	s.Error = msg
}

// Reset returns to idle with no data. Fetches in flight become stale.
func (s *Slice[E]) Reset() {
	*s = Slice[E]{Status: StatusIdle, ticket: s.ticket + 1, Version: s.Version + 1}
}

// Loaded reports whether a fetch has ever succeeded.
func (s *Slice[E]) Loaded() bool {
	return s.Data != nil
}

func (s *Slice[E]) set(data []E) {
	if data == nil {
		data = []E{}
	}
	s.Data = data
	s.Version++
}

// without returns a copy of list minus the elements matching drop.
func without[E any](list []E, drop func(E) bool) []E {
	out := make([]E, 0, len(list))
	for _, e := range list {
		if !drop(e) {
			out = append(out, e)
		}
	}
	return out
}

// replaced returns a copy of list with the first element matching match swapped for e.
func replaced[E any](list []E, match func(E) bool, e E) []E {
	out := make([]E, len(list))
	copy(out, list)
	for i := range out {
		if match(out[i]) {
			out[i] = e
			break
		}
	}
	return out
}

func mapped[E any](list []E, fn func(E) E) []E {
	out := make([]E, len(list))
	for i, e := range list {
		out[i] = fn(e)
	}
	return out
}

func cloned[E any](list []E) []E {
	if list == nil {
		return nil
	}
	out := make([]E, len(list))
	copy(out, list)
	return out
}
