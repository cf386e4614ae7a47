package protocol

import (
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one ordered message stream between a client and the server.
// Implementations must be safe for one concurrent reader and one concurrent
// writer, which is all the session loop needs.
type Conn interface {
	// Read blocks until the next frame arrives or the connection fails.
	Read() (Envelope, error)
	// Write sends one frame with the given type tag and payload.
	Write(typ string, payload any) error
	Close() error
}

// WSConn adapts a gorilla websocket connection to Conn, one JSON envelope
// per text frame.
type WSConn struct {
	ws        *websocket.Conn
	writeWait time.Duration
}

func NewWSConn(ws *websocket.Conn, writeWait time.Duration) *WSConn {
	return &WSConn{ws: ws, writeWait: writeWait}
}

func (c *WSConn) Read() (Envelope, error) {
	var e Envelope
	if err := c.ws.ReadJSON(&e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func (c *WSConn) Write(typ string, payload any) error {
	e, err := NewEnvelope(typ, payload)
	if err != nil {
		return err
	}
	if c.writeWait > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
	}
	return c.ws.WriteJSON(e)
}

func (c *WSConn) Close() error {
	return c.ws.Close()
}
