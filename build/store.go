package build

import (
	"context"
	"fmt"
	"sync"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/tree"
)

/*
State is the persistable snapshot of a Session: the tree, the
selection, the chosen feature and threshold, and the most recent
metrics. Loaded feature statistics are deliberately not part of
the snapshot; a resumed session reloads them on demand.
*/
type State struct {
	ID           string
	Tree         tree.Node
	Phase        Phase
	Selected     tree.Path
	HasSelection bool
	Feature      string
	Threshold    float64
	Metrics      *client.Metrics
	Criterion    string
	Dataset      *client.DatasetRef
}

/*
Snapshot returns the persistable state of the session. The tree
inside the snapshot is the session's immutable current tree and
stays valid while the session keeps mutating.
*/
func (s *Session) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &State{
		ID:           s.id,
		Tree:         s.root,
		Phase:        s.phase,
		Selected:     s.path.Clone(),
		HasSelection: s.phase != PhaseIdle,
		Feature:      s.feature,
		Threshold:    s.threshold,
		Metrics:      s.metrics,
		Criterion:    s.criterion,
		Dataset:      s.dataset,
	}
}

/*
Resume rebuilds a Session from a stored State. A session resumed
in ThresholdReady keeps its feature and threshold but carries no
loaded statistics until the next LoadFeatureStats.
*/
func Resume(st *State, backend Backend, opts ...Option) *Session {
	s := NewSession(st.Tree, backend, opts...)
	s.id = st.ID
	s.phase = st.Phase
	if st.HasSelection {
		s.path = st.Selected.Clone()
	} else {
		s.phase = PhaseIdle
	}
	s.feature = st.Feature
	s.threshold = st.Threshold
	s.metrics = st.Metrics
	if st.Criterion != "" {
		s.criterion = st.Criterion
	}
	if st.Dataset != nil {
		s.dataset = st.Dataset
	}
	return s
}

/*
SessionStore is an interface to manage a store where session
states can be created, retrieved, updated and deleted.

All its methods take a context that may allow cancelling the
operation (thus forcing the return of an error) if the
implementation allows it.
*/
type SessionStore interface {
	// Create takes a state and stores it for the first time,
	// creating an ID for it and setting it on the state. It
	// returns an error if the state cannot be stored.
	Create(ctx context.Context, st *State) error
	// Get takes an id and returns the state in the store with that
	// id (or nil if it cannot be found) or an error if the store
	// cannot be queried.
	Get(ctx context.Context, id string) (*State, error)
	// Store takes a state already existing in the store and
	// updates it. It expects the state to have an ID which it will
	// not alter. It returns an error if the update cannot be
	// performed.
	Store(ctx context.Context, st *State) error
	// Delete takes the id of a state existing in the store and
	// deletes it. It returns an error if the state exists but the
	// deletion cannot be performed.
	Delete(ctx context.Context, id string) error
	// Close closes the store. Implementations should free any
	// resources in use and ensure pending changes are applied
	// before returning, unless the context expires first.
	Close(ctx context.Context) error
}

type memorySessionStore struct {
	sessions map[string]*State
	lock     *sync.RWMutex
	nextID   uint64
}

// NewMemorySessionStore returns an implementation of SessionStore
// with the process memory space as underlying backend.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]*State),
		lock:     &sync.RWMutex{},
	}
}

func (mss *memorySessionStore) Create(ctx context.Context, st *State) error {
	return mss.withLock(ctx, func(ctx context.Context) error {
		taken := true
		for taken {
			if err := ctx.Err(); err != nil {
				return err
			}
			mss.nextID++
			st.ID = fmt.Sprintf("%d", mss.nextID)
			_, taken = mss.sessions[st.ID]
		}
		mss.sessions[st.ID] = st
		return nil
	})
}

func (mss *memorySessionStore) Get(ctx context.Context, id string) (*State, error) {
	var st *State
	err := mss.withRLock(ctx, func(ctx context.Context) error {
		st = mss.sessions[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (mss *memorySessionStore) Store(ctx context.Context, st *State) error {
	return mss.withLock(ctx, func(ctx context.Context) error {
		mss.sessions[st.ID] = st
		return nil
	})
}

func (mss *memorySessionStore) Delete(ctx context.Context, id string) error {
	return mss.withLock(ctx, func(ctx context.Context) error {
		delete(mss.sessions, id)
		return nil
	})
}

func (mss *memorySessionStore) Close(ctx context.Context) error {
	return nil
}

func (mss *memorySessionStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mss.lock.Lock()
		select {
		case <-ctx.Done():
			mss.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mss.lock.Unlock()
	}
	return f(ctx)
}

func (mss *memorySessionStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mss.lock.RLock()
		select {
		case <-ctx.Done():
			mss.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mss.lock.RUnlock()
	}
	return f(ctx)
}
