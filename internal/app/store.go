package app

import (
	"sync"

	"github.com/felixbrock/okrs/internal/domain"
)

// Store owns the single in-memory collection of objectives. Only the
// controller mutates it; any number of views subscribe to it.
type Store struct {
	mu          sync.RWMutex
	objectives  []domain.Objective
	echoes      map[string]echo
	echoSeq     uint64
	states      map[string]MutationState
	version     uint64
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// echo is a typed, unconfirmed value. token identifies the submission that
// owns it.
type echo struct {
	current float64
	token   uint64
}

func NewStore() *Store {
	return &Store{
		objectives:  []domain.Objective{},
		echoes:      map[string]echo{},
		states:      map[string]MutationState{},
		subscribers: map[int]func(Snapshot){},
	}
}

// Snapshot is an immutable copy of the store.
type Snapshot struct {
	Version    uint64
	Objectives []domain.Objective
	Echoes     map[string]float64
	States     map[string]MutationState
}

func (s Snapshot) Objective(id string) (domain.Objective, bool) {
	for _, o := range s.Objectives {
		if o.Id == id {
			return o, true
		}
	}
	return domain.Objective{}, false
}

func (s Snapshot) State(region string) MutationState {
	return s.States[region]
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	objectives := make([]domain.Objective, len(s.objectives))
	for i, o := range s.objectives {
		objectives[i] = o.Clone()
	}
	echoes := make(map[string]float64, len(s.echoes))
	for k, v := range s.echoes {
		echoes[k] = v.current
	}
	states := make(map[string]MutationState, len(s.states))
	for k, v := range s.states {
		states[k] = v
	}
	return Snapshot{Version: s.version, Objectives: objectives, Echoes: echoes, States: states}
}

// Replace installs the collection returned by refresh number seq. Results of
// a refresh older than the last applied one are dropped.
func (s *Store) Replace(seq uint64, objectives []domain.Objective) bool {
	s.mu.Lock()
	if seq <= s.version {
		s.mu.Unlock()
		return false
	}
	s.version = seq
	s.objectives = make([]domain.Objective, len(objectives))
	for i, o := range objectives {
		s.objectives[i] = o.Clone()
	}
	s.publishLocked()
	return true
}

// EchoProgress records a typed, not yet confirmed progress value and returns
// the token that owns it. A later echo of the same region replaces it.
func (s *Store) EchoProgress(region string, current float64) uint64 {
	s.mu.Lock()
	s.echoSeq++
	token := s.echoSeq
	s.echoes[region] = echo{current: domain.ClampCurrent(current), token: token}
	s.publishLocked()
	return token
}

// ReleaseEcho removes the echo of region only while token still owns it.
func (s *Store) ReleaseEcho(region string, token uint64) {
	s.mu.Lock()
	if e, ok := s.echoes[region]; !ok || e.token != token {
		s.mu.Unlock()
		return
	}
	delete(s.echoes, region)
	s.publishLocked()
}

func (s *Store) State(region string) MutationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[region]
}

// setState validates and applies a region transition.
func (s *Store) setState(region string, to MutationState) error {
	s.mu.Lock()
	if err := transition(s.states[region], to); err != nil {
		s.mu.Unlock()
		return err
	}
	s.states[region] = to
	s.publishLocked()
	return nil
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// publishLocked must be called with the write lock held; it releases it
// before invoking subscribers.
func (s *Store) publishLocked() {
	snapshot := s.snapshotLocked()
	subscribers := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
