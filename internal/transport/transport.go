// Package transport supplies the byte-stream abstraction sessions are built
// on. The rest of the server never opens sockets itself; it accepts Conns
// from a Listener and reads/writes frames through them.
package transport

import (
	"io"
	"net"
	"time"
)

// Conn is one client's exclusively owned byte stream. *net.TCPConn satisfies
// it directly; other transports adapt to it.
type Conn interface {
	io.Reader
	io.Writer
	Close() error
	RemoteAddr() net.Addr
	SetReadDeadline(t time.Time) error
}

// Listener accepts client connections for a frontend.
type Listener interface {
	Accept() (Conn, error)
	Close() error
	Addr() net.Addr
}

// tcpListener adapts *net.TCPListener to the Listener interface.
type tcpListener struct {
	*net.TCPListener
}

func (l tcpListener) Accept() (Conn, error) {
	return l.AcceptTCP()
}

// ListenTCP opens a TCP Listener on addr.
func ListenTCP(addr string) (Listener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, err
	}

	return tcpListener{socket}, nil
}
