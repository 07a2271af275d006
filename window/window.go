// Package window models the parts of a browser window the session lifecycle
// depends on: its origin, top-level navigation and cross-window messages.
package window

import (
	"strings"
	"sync"
)

// Navigator moves the window to another URL
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to a Navigator
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) {
	f(target)
}

// Window is the origin, location and message channel of one visitor window
type Window struct {
	origin    string
	navigator Navigator
	messages  *Messages
}

func New(origin string, navigator Navigator, messages *Messages) *Window {
	if messages == nil {
		messages = NewMessages()
	}
	return &Window{
		origin:    strings.TrimSuffix(origin, "/"),
		navigator: navigator,
		messages:  messages,
	}
}

func (w *Window) Origin() string {
	return w.origin
}

// Navigate is a no-op when the window has no navigator
func (w *Window) Navigate(target string) {
	if w.navigator == nil {
		return
	}
	w.navigator.Navigate(target)
}

func (w *Window) Messages() *Messages {
	return w.messages
}

// Recorder is a Navigator that remembers where the window was sent.
// Server handlers use it to turn a navigation into an HTTP redirect.
type Recorder struct {
	mu     sync.Mutex
	target string
	once   sync.Once
	done   chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{done: make(chan struct{})}
}

// Navigate records target; the most recent navigation wins
func (r *Recorder) Navigate(target string) {
	r.mu.Lock()
	r.target = target
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *Recorder) Target() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// Navigated is closed on the first navigation
func (r *Recorder) Navigated() <-chan struct{} {
	return r.done
}
