package oauthflow

import (
	"sync"

	"github.com/jrsteele09/go-account-dashboard/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu    sync.RWMutex
	flows map[string]*Flow
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		flows: make(map[string]*Flow),
	}
}

// Upsert stores a copy of flow. The message channel is shared, not copied.
func (r *InMemoryRepo) Upsert(id string, flow *Flow) error {
	if id == "" {
		return errors.Wrapf(errors.ErrNotFound, "flow id cannot be empty")
	}
	if flow == nil || flow.Messages == nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "flow needs a message channel")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *flow
	r.flows[id] = &cp
	return nil
}

func (r *InMemoryRepo) Get(id string) (*Flow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, ok := r.flows[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *flow
	return &cp, nil
}

func (r *InMemoryRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flows, id)
	return nil
}

// Len is the number of pending flows
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}
