package dashboard

import (
	"sync"
	"time"

	"github.com/tejusbharadwaj/renugrid/internal/models"
	"github.com/tejusbharadwaj/renugrid/internal/telemetry"
)

// Store owns the dashboard state. Poll outcomes are tagged with the sequence
// number of the poll that produced them; an outcome older than the last one
// applied is discarded.
type Store struct {
	mu      sync.RWMutex
	state   State
	begun   uint64
	applied uint64
	closed  bool

	subs   map[int]chan State
	nextID int

	loc *time.Location
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the zone used for the LastUpdated clock.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a store in the Connecting state with no data.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: State{
			Connectivity: Connecting(),
			LastUpdated:  "--:--:--",
		},
		subs: make(map[int]chan State),
		loc:  time.Local,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy that is safe to keep and read.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Begin marks poll seq as in flight.
func (s *Store) Begin(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq <= s.applied || seq <= s.begun {
		return false
	}
	s.begun = seq
	s.state.Loading = s.loading()
	s.publish()
	return true
}

// Succeed applies a successful poll. An empty batch is recorded as a failure
// with WaitingForData.
func (s *Store) Succeed(seq uint64, samples []models.Sample) bool {
	if len(samples) == 0 {
		return s.Fail(seq, WaitingForData)
	}

	history := make([]models.Sample, len(samples))
	copy(history, samples)
	latest := history[len(history)-1]

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accept(seq) {
		return false
	}
	s.state.Latest = &latest
	s.state.History = history
	s.state.Connectivity = Connected()
	s.state.LastUpdated = telemetry.FormatClock(latest.Timestamp, s.loc)
	s.finish(seq)
	return true
}

// Fail applies a failed poll. Latest and History are left untouched.
func (s *Store) Fail(seq uint64, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accept(seq) {
		return false
	}
	s.state.Connectivity = Failed(reason)
	s.finish(seq)
	return true
}

// Subscribe returns a channel receiving a snapshot after every change. A slow
// reader only misses intermediate snapshots, never the newest one. The
// channel is closed by cancel or Close.
func (s *Store) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// Close stops the store from accepting outcomes and closes all subscriptions.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.state.Loading = false
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// must be called with s.mu held
func (s *Store) accept(seq uint64) bool {
	return !s.closed && seq > s.applied
}

// must be called with s.mu held
func (s *Store) finish(seq uint64) {
	s.applied = seq
	if s.begun < seq {
		s.begun = seq
	}
	s.state.Seq = seq
	s.state.Loading = s.loading()
	s.state.UpdatedAt = s.now()
	s.publish()
}

// loading reports a poll in flight while the feed is not known to be up. A
// refresh of a connected feed keeps showing Connected, so Loading and
// Connected never hold together. Must be called with s.mu held.
func (s *Store) loading() bool {
	return s.begun > s.applied && s.state.Connectivity.Status() != StatusConnected
}

// must be called with s.mu held
func (s *Store) publish() {
	snap := s.state.clone()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot in favour of the new one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
