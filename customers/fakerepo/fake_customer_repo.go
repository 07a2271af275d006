package fakecustomerrepo

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-account-dashboard/customers"
	"github.com/jrsteele09/go-account-dashboard/internal/errors"
)

var _ customers.Repo = (*FakeCustomerRepo)(nil)

type FakeCustomerRepo struct {
	customers map[string]*customers.Customer
	lock      sync.RWMutex
}

// NewFakeCustomerRepo returns a repo holding a copy of seed
func NewFakeCustomerRepo(seed ...customers.Customer) *FakeCustomerRepo {
	r := &FakeCustomerRepo{
		customers: make(map[string]*customers.Customer),
	}
	for i := range seed {
		c := seed[i]
		_ = r.Upsert(&c)
	}
	return r
}

func (r *FakeCustomerRepo) Upsert(customer *customers.Customer) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if customer.ID == "" {
		customer.ID = uuid.New().String()[:8]
	}
	c := *customer
	r.customers[c.ID] = &c
	return nil
}

func (r *FakeCustomerRepo) Delete(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.customers[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

func (r *FakeCustomerRepo) Get(id string) (*customers.Customer, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// List pages through customers ordered by id. A limit <= 0 means all.
func (r *FakeCustomerRepo) List(offset, limit int) ([]*customers.Customer, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*customers.Customer, 0, len(r.customers))
	for _, v := range r.customers {
		c := *v
		list = append(list, &c)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	if offset < 0 || offset >= len(list) {
		return []*customers.Customer{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}
