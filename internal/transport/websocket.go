package transport

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// The game client is not a browser; origin checks don't apply.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a websocket connection to the Conn interface. Each outbound
// Write becomes one binary message (sessions write whole frames in a single
// call); inbound binary messages are exposed as a continuous byte stream so
// the frame reader doesn't care which transport it's on.
type wsConn struct {
	ws     *websocket.Conn
	reader io.Reader
}

func (c *wsConn) Read(b []byte) (int, error) {
	for {
		if c.reader == nil {
			messageType, reader, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			c.reader = reader
		}

		n, err := c.reader.Read(b)
		if err == io.EOF {
			// This message is drained; the next Read pulls a new one.
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(b []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

func (c *wsConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

func (c *wsConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

// wsListener bridges upgraded websocket connections from an HTTP server into
// the Listener interface.
type wsListener struct {
	server *http.Server
	conns  chan Conn
	addr   net.Addr
	closed chan struct{}
}

func (l *wsListener) Accept() (Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *wsListener) Close() error {
	select {
	case <-l.closed:
		return nil
	default:
	}
	close(l.closed)
	return l.server.Close()
}

func (l *wsListener) Addr() net.Addr {
	return l.addr
}

// ListenWebsocket starts an HTTP server on addr that upgrades requests to
// websocket connections speaking the same frames as the TCP listener.
func ListenWebsocket(addr string) (Listener, error) {
	socket, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	l := &wsListener{
		conns:  make(chan Conn),
		addr:   socket.Addr(),
		closed: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case l.conns <- &wsConn{ws: ws}:
		case <-l.closed:
			_ = ws.Close()
		}
	})

	l.server = &http.Server{Handler: mux}
	go func() {
		if err := l.server.Serve(socket); err != nil && err != http.ErrServerClosed {
			fmt.Printf("websocket listener exited: %v\n", err)
		}
	}()

	return l, nil
}
