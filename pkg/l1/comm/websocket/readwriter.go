// Package websocket carries packets as binary websocket frames, one
// packet per frame.
package websocket

import (
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// DefaultWriteTimeout bounds a frame write to a slow peer.
const DefaultWriteTimeout = 2 * time.Second

// Conn implements PacketReadWriter on a websocket connection. Writes
// may come from multiple goroutines.
type Conn struct {
	WriteTimeout time.Duration

	ws        *websocket.Conn
	writeLock sync.Mutex
}

// New wraps a websocket connection.
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, WriteTimeout: DefaultWriteTimeout}
}

// ReadPacket implements PacketReader.
func (c *Conn) ReadPacket() ([]byte, error) {
	var pkt []byte
	err := websocket.Message.Receive(c.ws, &pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (c *Conn) WritePacket(pkt []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if c.WriteTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.WriteTimeout)); err != nil {
			return err
		}
	}
	return websocket.Message.Send(c.ws, pkt)
}

// Drain discards inbound frames until the peer goes away. A clean close
// returns nil.
func (c *Conn) Drain() error {
	for {
		if _, err := c.ReadPacket(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// RemoteAddr is the peer address of the upgraded request.
func (c *Conn) RemoteAddr() string {
	if req := c.ws.Request(); req != nil {
		return req.RemoteAddr
	}
	return c.ws.RemoteAddr().String()
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	return c.ws.Close()
}
