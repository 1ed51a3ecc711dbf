package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arko-chat/hostbridge/internal/transport"
)

const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 1 << 20
	sendBuffer     = 256
)

var ErrSendBufferFull = errors.New("ws: send buffer full")

// Client carries bridge envelopes over one websocket connection, one text
// frame per envelope.
type Client struct {
	Conn   *websocket.Conn
	send   chan string
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

var _ transport.Sender = (*Client)(nil)

func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Conn:   conn,
		send:   make(chan string, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Send queues text for the write pump. It never blocks; a closed connection
// reports transport.ErrUnavailable.
func (c *Client) Send(text string) error {
	select {
	case <-c.done:
		return transport.ErrUnavailable
	default:
	}

	select {
	case c.send <- text:
		return nil
	case <-c.done:
		return transport.ErrUnavailable
	default:
		c.logger.Warn("ws dropped envelope")
		return ErrSendBufferFull
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case text := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				c.logger.Debug("ws write failed", "err", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// ReadPump hands every text frame to recv until the connection fails or is
// closed. It blocks.
func (c *Client) ReadPump(recv transport.Receiver) {
	defer c.Close()

	c.Conn.SetReadLimit(MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		kind, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		recv.Deliver(string(raw))
	}
}

// Close stops the write pump, which closes the connection.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed once Close has been called.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
