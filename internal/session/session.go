// Package session tracks the server-side state for each live client
// connection and the registry of authenticated sessions.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"voxeld/internal/core/data"
	"voxeld/internal/protocol"
	"voxeld/internal/transport"
)

// Session represents one live client connection. It owns the transport
// resource exclusively and releases it exactly once on teardown. A session
// starts unauthenticated; the identity is bound on successful login and is
// what keys the session into the Registry.
type Session struct {
	connection transport.Conn
	id         string
	ipAddr     string

	// Account associated with the player after login.
	Account *data.Account

	identityMu sync.RWMutex
	identity   string

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewSession(connection transport.Conn) *Session {
	addr := connection.RemoteAddr().String()
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		addr = addr[:i]
	}

	return &Session{
		connection: connection,
		id:         uuid.NewString(),
		ipAddr:     addr,
	}
}

// ID returns the connection-scoped session ID, assigned on accept. Unlike
// the identity it is always present and never reused.
func (s *Session) ID() string { return s.id }

func (s *Session) IPAddr() string { return s.ipAddr }

// Identity returns the authenticated username, or "" before login succeeds.
func (s *Session) Identity() string {
	s.identityMu.RLock()
	defer s.identityMu.RUnlock()
	return s.identity
}

// BindIdentity sets the authenticated username on the session.
func (s *Session) BindIdentity(identity string) {
	s.identityMu.Lock()
	s.identity = identity
	s.identityMu.Unlock()
}

// Authenticated reports whether login has completed for this session.
func (s *Session) Authenticated() bool {
	return s.Identity() != ""
}

// Read consumes available bytes directly from the client's connection.
func (s *Session) Read(b []byte) (int, error) {
	return s.connection.Read(b)
}

// Conn exposes the underlying transport connection for deadline control.
func (s *Session) Conn() transport.Conn {
	return s.connection
}

// Send serializes a fixed-layout message struct and writes it to the client
// as a single frame.
func (s *Session) Send(tag int32, message interface{}) error {
	return s.transmit(protocol.EncodeMessage(tag, message))
}

// SendRaw frames an already-serialized payload and writes it to the client.
// Room broadcasts use it to serialize a message once and deliver the same
// payload to every member.
func (s *Session) SendRaw(tag int32, payload []byte) error {
	return s.transmit(protocol.Encode(tag, payload))
}

// transmit writes the full frame to the connection. Writes are serialized so
// concurrent broadcasts can't interleave partial frames.
func (s *Session) transmit(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sent := 0
	for sent < len(frame) {
		n, err := s.connection.Write(frame[sent:])
		if err != nil {
			return fmt.Errorf("failed to send to client %v: %s", s.ipAddr, err)
		}
		sent += n
	}
	return nil
}

// Close releases the connection. Safe to call from multiple teardown paths;
// only the first call closes the transport.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.connection.Close()
	})
	return s.closeErr
}
