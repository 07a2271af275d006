package backendfake

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-account-dashboard/internal/errors"
	"github.com/jrsteele09/go-account-dashboard/users"
)

// account is a backend user with its password hash. OAuth-only accounts
// have no hash.
type account struct {
	User         users.User
	PasswordHash string
}

type accountRepo struct {
	accounts map[string]*account
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func newAccountRepo() *accountRepo {
	return &accountRepo{
		accounts: make(map[string]*account),
		emailIds: make(map[string]string),
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *accountRepo) Upsert(a *account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if a.User.ID == "" {
		a.User.ID = uuid.New().String()
	}
	cp := *a
	r.accounts[cp.User.ID] = &cp
	r.emailIds[normaliseEmail(cp.User.Email)] = cp.User.ID
	return nil
}

func (r *accountRepo) GetByEmail(email string) (*account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.emailIds[normaliseEmail(email)]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *r.accounts[id]
	return &cp, nil
}

func (r *accountRepo) GetByID(id string) (*account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}
