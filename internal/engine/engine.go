// Package engine abstracts the browser automation backends behind one
// capability set: launch a controllable page, navigate it, reload it, read
// its URL, observe its lifecycle and network events, close it.
//
// Two adapters implement the set: rod (direct CDP against Chromium) and
// playwright (driver-mediated). Callers depend only on the interfaces here.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"keepalive/internal/config"
)

// EventKind labels a page activity event.
type EventKind string

const (
	PageLoaded          EventKind = "page-loaded"
	NavigationCommitted EventKind = "navigation-committed"
	RequestStarted      EventKind = "request-started"
	RequestFinished     EventKind = "request-finished"
	RequestFailed       EventKind = "request-failed"
	ResponseReceived    EventKind = "response-received"
)

// Event is one observed page activity occurrence. Fields other than Kind and
// At are populated when the backend reports them.
type Event struct {
	Kind    EventKind
	URL     string
	Method  string
	Status  int
	Failure string
	At      time.Time
}

// Options configure a launch.
type Options struct {
	Headless bool
	// CDPPort, when non-zero, asks the browser to expose its DevTools
	// endpoint on that local port.
	CDPPort int
}

// Session is a live handle to one controllable browser page.
//
// Goto and Reload block until the page reaches the load state or the call
// fails; implementations never run two driving calls concurrently because
// the scheduler serializes them. Close is idempotent.
type Session interface {
	Goto(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	CurrentURL() string
	// Subscribe registers a listener for page activity events. Listeners
	// must not block; they run on the backend's event goroutine.
	Subscribe(fn func(Event))
	Close() error
}

// Engine launches sessions for one automation backend.
type Engine interface {
	Name() string
	Launch(ctx context.Context, opts Options) (Session, error)
}

// New returns the engine registered under name.
func New(name string, logger *zap.Logger) (Engine, error) {
	switch name {
	case config.EngineRod:
		return NewRod(logger), nil
	case config.EnginePlaywright:
		return NewPlaywright(logger), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// subscribers fans events out to every registered listener.
type subscribers struct {
	mu  sync.RWMutex
	fns []func(Event)
}

func (s *subscribers) add(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
}

func (s *subscribers) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.fns {
		fn(ev)
	}
}
