package internal

import (
	"context"

	"voxeld/internal/dispatch"
	"voxeld/internal/session"
)

// Backend is an interface for a game flow implementation that owns the
// message handlers for a set of client interactions.
type Backend interface {
	// Name returns a uniquely identifying string.
	Identifier() string

	// Init is called before a Backend is started as a hook for the Backend to
	// perform any necessary initialization before it can accept clients.
	Init(ctx context.Context) error

	// RegisterHandlers binds the Backend's message handlers (and its fallback
	// for unrecognized tags) onto the dispatcher the frontend reads into.
	RegisterHandlers(d *dispatch.Dispatcher)

	// Handshake performs any connection initialization necessary to begin
	// communicating with a newly accepted client.
	Handshake(s *session.Session) error

	// OnDisconnect is invoked exactly once per session after its read loop
	// exits, however it exited. The Backend releases any session-scoped
	// state it holds; the frontend owns closing the connection itself.
	OnDisconnect(s *session.Session)
}
