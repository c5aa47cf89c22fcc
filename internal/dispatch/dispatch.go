// Package dispatch routes decoded frames to typed handlers by type tag.
package dispatch

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"voxeld/internal/session"
)

// Handler processes one inbound message. Each handler owns the decoding of
// its payload; the dispatcher hands it the raw bytes.
type Handler func(ctx context.Context, s *session.Session, payload []byte) error

// Dispatcher maps type tags to handlers. Registration is last-wins: handlers
// are swappable, not additive. Unknown tags route to the fallback handler
// when one is set and are logged and dropped otherwise; a bad message never
// tears down the connection loop.
type Dispatcher struct {
	Logger *logrus.Logger

	mu       sync.RWMutex
	handlers map[int32]Handler
	fallback Handler
}

func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		Logger:   logger,
		handlers: make(map[int32]Handler),
	}
}

// Register binds a handler to a type tag, replacing any previous handler
// for that tag.
func (d *Dispatcher) Register(tag int32, handler Handler) {
	d.mu.Lock()
	d.handlers[tag] = handler
	d.mu.Unlock()
}

// RegisterFallback binds the handler invoked for tags with no registered
// handler. The raw payload is passed through unchanged.
func (d *Dispatcher) RegisterFallback(handler Handler) {
	d.mu.Lock()
	d.fallback = handler
	d.mu.Unlock()
}

// Dispatch looks up the handler for tag and invokes it. Handler errors and
// panics are contained here: they are logged with the tag and session
// identity and never propagate, so one malformed message can't take down
// the read loop or affect other sessions.
func (d *Dispatcher) Dispatch(ctx context.Context, s *session.Session, tag int32, payload []byte) {
	d.mu.RLock()
	handler, ok := d.handlers[tag]
	if !ok {
		handler = d.fallback
	}
	d.mu.RUnlock()

	if handler == nil {
		d.Logger.Infof("dropping message with unhandled tag 0x%02X from %s", tag, describe(s))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.Logger.Errorf("panic handling tag 0x%02X from %s: %v\n%s",
				tag, describe(s), r, debug.Stack())
		}
	}()

	if err := handler(ctx, s, payload); err != nil {
		d.Logger.Warnf("error handling tag 0x%02X from %s: %v", tag, describe(s), err)
	}
}

func describe(s *session.Session) string {
	if identity := s.Identity(); identity != "" {
		return identity
	}
	return "unauthenticated session " + s.ID()
}
