// network/connection.go
package network

import (
	"context"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Stream is a persistent, ordered byte connection to the zone server.
type Stream interface {
	io.ReadWriteCloser
	SetDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

// Dialer opens a Stream.
type Dialer func(ctx context.Context) (Stream, error)

// TCPDialer dials a raw TCP stream.
func TCPDialer(addr string) Dialer {
	return func(ctx context.Context) (Stream, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// WebSocketDialer dials a WebSocket that carries the binary frames as
// binary messages.
func WebSocketDialer(addr, path string) Dialer {
	return func(ctx context.Context) (Stream, error) {
		u := url.URL{Scheme: "ws", Host: addr, Path: path}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			return nil, err
		}
		return NewWSStream(conn), nil
	}
}

// WSStream adapts a websocket connection to a byte stream. Every Write is
// sent as one binary message; Read drains messages in order.
type WSStream struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
	pending   []byte
}

func NewWSStream(conn *websocket.Conn) *WSStream {
	return &WSStream{conn: conn}
}

func (c *WSStream) Write(p []byte) (int, error) {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *WSStream) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		c.pending = data
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *WSStream) SetDeadline(t time.Time) error {
	if err := c.conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.conn.SetWriteDeadline(t)
}

func (c *WSStream) Close() error {
	c.sendMutex.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.sendMutex.Unlock()
	return c.conn.Close()
}

func (c *WSStream) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
