package query

import (
	"context"
	"sync"
)

// Mutation tracks one kind of write, such as the create form's submit. It
// allows a single run at a time.
type Mutation struct {
	store *Store

	mu     sync.Mutex
	status Status
	result any
	err    error
}

// NewMutation returns an idle mutation bound to the store.
func (s *Store) NewMutation() *Mutation {
	return &Mutation{store: s}
}

// Run executes fn through the store. It fails with ErrMutationPending
// while a previous run has not returned.
func (m *Mutation) Run(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	m.mu.Lock()
	if m.status == StatusLoading {
		m.mu.Unlock()
		return nil, ErrMutationPending
	}
	m.status = StatusLoading
	m.err = nil
	m.mu.Unlock()

	result, err := m.store.Mutate(ctx, fn)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.status = StatusError
		m.err = err
		return nil, err
	}
	m.status = StatusSuccess
	m.result = result
	return result, nil
}

// Pending reports whether a run is in progress.
func (m *Mutation) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == StatusLoading
}

// Status returns the state of the last run.
func (m *Mutation) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the error of the last failed run.
func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Reset returns the mutation to idle unless a run is pending.
func (m *Mutation) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusLoading {
		return
	}
	m.status = StatusIdle
	m.result = nil
	m.err = nil
}
