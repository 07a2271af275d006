package window

import (
	"sync"

	"github.com/jrsteele09/go-account-dashboard/users"
)

const (
	TypeOAuthSuccess = "OAUTH_SUCCESS"
	TypeOAuthError   = "OAUTH_ERROR"
)

// Message is the payload of a cross-window message
type Message struct {
	Type    string      `json:"type"`
	User    *users.User `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Event is a delivered message together with the origin of its sender
type Event struct {
	Origin string
	Data   Message
}

// Messages is a window's message channel. Listeners are registered with
// Listen and stay registered until their remove function is called.
type Messages struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(Event)
}

func NewMessages() *Messages {
	return &Messages{listeners: make(map[uint64]func(Event))}
}

// Listen registers fn and returns a function that deregisters it.
// Calling remove more than once is safe.
func (m *Messages) Listen(fn func(Event)) (remove func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Post delivers msg to every listener registered at the time of the call.
// Listeners run on the caller's goroutine and may remove themselves.
func (m *Messages) Post(origin string, msg Message) {
	m.mu.Lock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	ev := Event{Origin: origin, Data: msg}
	for _, fn := range fns {
		fn(ev)
	}
}

// Listeners returns the number of registered listeners
func (m *Messages) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}
