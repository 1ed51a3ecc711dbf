package legacy

import (
	"log/slog"

	"github.com/arko-chat/hostbridge/internal/bridge"
)

// Session pairs a polling queue with the bridge that sends through it.
type Session struct {
	Queue  *Queue
	Bridge *bridge.Bridge
}

// NewSession builds a bridge over a fresh queue. The caller registers
// handlers and calls Init.
func NewSession(signal func(url string), logger *slog.Logger, opts ...bridge.Option) *Session {
	q := NewQueue(signal, logger)
	return &Session{
		Queue:  q,
		Bridge: bridge.New(q, append([]bridge.Option{bridge.WithLogger(logger)}, opts...)...),
	}
}

func (s *Session) Close() {
	s.Bridge.Close()
}
