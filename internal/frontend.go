package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"voxeld/internal/core"
	voxdebug "voxeld/internal/core/debug"
	"voxeld/internal/dispatch"
	"voxeld/internal/protocol"
	"voxeld/internal/session"
	"voxeld/internal/transport"
)

// frontend implements the concurrent client connection logic.
//
// Frames are read from any connected clients and routed through the
// dispatcher to the Backend's handlers, abstracting the lower level
// connection details away from the Backend.
type frontend struct {
	Address    string
	Listen     func(address string) (transport.Listener, error)
	Backend    Backend
	Dispatcher *dispatch.Dispatcher
	Config     *core.Config
	Logger     *logrus.Logger

	connected atomic.Int64
}

// Start initializes the server backend and opens a listening socket. A
// blocking loop for accepting client connections is spun off in its own
// goroutine and added to the WaitGroup. Context cancellations will stop the
// server.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %v", f.Backend.Identifier(), err)
	}
	f.Backend.RegisterHandlers(f.Dispatcher)

	socket, err := f.Listen(f.Address)
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %v", f.Address, err)
	}

	wg.Add(1)
	go f.startBlockingLoop(ctx, socket, wg)

	return nil
}

// startBlockingLoop implements a connection handling loop that's purely
// responsible for accepting new connections and spinning off goroutines to
// handle them.
func (f *frontend) startBlockingLoop(ctx context.Context, socket transport.Listener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Printf("[%s] waiting for connections on %v", f.Backend.Identifier(), f.Address)

	connections := make(chan transport.Conn)
	go func() {
		for {
			// Poll until we can accept more clients.
			for f.Config.MaxConnections > 0 && int(f.connected.Load()) >= f.Config.MaxConnections {
				time.Sleep(time.Second)
			}

			connection, err := socket.Accept()
			if err != nil {
				f.Logger.Warnf("failed to accept connection: %s", err.Error())
				return
			}

			select {
			case connections <- connection:
			case <-ctx.Done():
				// The handle loop is gone; don't strand the connection.
				_ = connection.Close()
				return
			}
		}
	}()

	clientWg := &sync.WaitGroup{}
handleLoop:
	for {
		select {
		case <-ctx.Done():
			break handleLoop
		case connection := <-connections:
			clientWg.Add(1)
			go f.acceptClient(ctx, connection, clientWg)
		}
	}

	_ = socket.Close()
	f.Logger.Infof("[%v] shutting down (waiting for connections to close)", f.Backend.Identifier())
	clientWg.Wait()
	f.Logger.Infof("[%v] exited", f.Backend.Identifier())
}

// acceptClient takes a connection, sets up the session, and performs the
// Backend handshake. If it succeeds, the goroutine moves into the frame
// processing loop.
func (f *frontend) acceptClient(ctx context.Context, connection transport.Conn, wg *sync.WaitGroup) {
	defer wg.Done()

	s := session.NewSession(connection)
	f.connected.Add(1)

	f.Logger.Infof("[%s] accepted connection from %s", f.Backend.Identifier(), s.IPAddr())

	if err := f.Backend.Handshake(s); err != nil {
		f.Logger.Errorf("Handshake() failed for client %s: %s", s.IPAddr(), err)
	}

	f.processFrames(ctx, s)
}

// processFrames starts a blocking loop dedicated to reading frames sent from
// a game client and only returns once the connection has closed.
func (f *frontend) processFrames(ctx context.Context, s *session.Session) {
	defer f.closeConnectionAndRecover(f.Backend.Identifier(), s)

	for {
		select {
		case <-ctx.Done():
			// Allow the deferred function to close the connection.
			return
		default:
		}

		if f.Config.ReadTimeout > 0 {
			if err := s.Conn().SetReadDeadline(time.Now().Add(f.Config.ReadTimeout)); err != nil {
				f.Logger.Warnf("failed to set read deadline for %s: %s", s.IPAddr(), err)
			}
		}

		tag, payload, err := protocol.ReadFrame(s)
		if err == io.EOF {
			break
		} else if err != nil {
			f.Logger.Warnf("read error from %s: %s", s.IPAddr(), err.Error())
			break
		}

		if f.Config.Debugging.FrameLoggingEnabled {
			voxdebug.PrintFrame(os.Stdout, tag, payload, true)
		}

		f.Dispatcher.Dispatch(ctx, s, tag, payload)
	}
}

// closeConnectionAndRecover is the failsafe that catches any panics,
// disconnects the client, and releases its state regardless of the state of
// the connection.
func (f *frontend) closeConnectionAndRecover(serverName string, s *session.Session) {
	if err := recover(); err != nil {
		f.Logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			s.IPAddr(), err, debug.Stack())
	}

	if err := s.Close(); err != nil {
		f.Logger.Warnf("failed to close client connection: %s", err)
	}

	f.Backend.OnDisconnect(s)
	f.connected.Add(-1)

	f.Logger.Infof("[%s] disconnected client %s", serverName, s.IPAddr())
}
