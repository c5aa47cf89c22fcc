package dispatch

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/sirupsen/logrus"

	"voxeld/internal/session"
)

func newTestDispatcher() *Dispatcher {
	logger := logrus.New()
	logger.Out = io.Discard
	return NewDispatcher(logger)
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return session.NewSession(server)
}

func TestDispatchInvokesHandler(t *testing.T) {
	d := newTestDispatcher()
	s := newTestSession(t)

	var gotPayload []byte
	d.Register(0x10, func(ctx context.Context, s *session.Session, payload []byte) error {
		gotPayload = payload
		return nil
	})

	d.Dispatch(context.Background(), s, 0x10, []byte{0xAB, 0xCD})
	if string(gotPayload) != string([]byte{0xAB, 0xCD}) {
		t.Errorf("handler payload = %v, want [0xAB 0xCD]", gotPayload)
	}
}

func TestRegisterLastWins(t *testing.T) {
	d := newTestDispatcher()
	s := newTestSession(t)

	var invoked string
	d.Register(0x10, func(ctx context.Context, s *session.Session, payload []byte) error {
		invoked = "first"
		return nil
	})
	d.Register(0x10, func(ctx context.Context, s *session.Session, payload []byte) error {
		invoked = "second"
		return nil
	})

	d.Dispatch(context.Background(), s, 0x10, nil)
	if invoked != "second" {
		t.Errorf("invoked = %q, want the last registered handler", invoked)
	}
}

func TestDispatchUnknownTag(t *testing.T) {
	d := newTestDispatcher()
	s := newTestSession(t)

	// No handler, no fallback: the message is dropped without panicking.
	d.Dispatch(context.Background(), s, 0x77, []byte{0x01})

	var fallbackTag int32
	var fallbackPayload []byte
	d.RegisterFallback(func(ctx context.Context, s *session.Session, payload []byte) error {
		fallbackTag = 0x77
		fallbackPayload = payload
		return nil
	})

	d.Dispatch(context.Background(), s, 0x77, []byte{0x01, 0x02})
	if fallbackTag != 0x77 {
		t.Error("fallback handler was not invoked for unknown tag")
	}
	if len(fallbackPayload) != 2 {
		t.Errorf("fallback payload = %v, want raw pass-through", fallbackPayload)
	}
}

func TestDispatchContainsPanicsAndErrors(t *testing.T) {
	d := newTestDispatcher()
	s := newTestSession(t)

	d.Register(0x10, func(ctx context.Context, s *session.Session, payload []byte) error {
		panic("handler exploded")
	})
	d.Register(0x11, func(ctx context.Context, s *session.Session, payload []byte) error {
		return errors.New("handler failed")
	})

	// Neither may propagate to the caller.
	d.Dispatch(context.Background(), s, 0x10, nil)
	d.Dispatch(context.Background(), s, 0x11, nil)

	// Dispatching for other tags keeps working afterwards.
	handled := false
	d.Register(0x12, func(ctx context.Context, s *session.Session, payload []byte) error {
		handled = true
		return nil
	})
	d.Dispatch(context.Background(), s, 0x12, nil)
	if !handled {
		t.Error("dispatcher stopped working after a handler panic")
	}
}
