package ws

import (
	"log/slog"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arko-chat/hostbridge/internal/bridge"
)

// Hub tracks the bridges attached to live websocket connections.
type Hub struct {
	bridges *xsync.Map[string, *bridge.Bridge]
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		bridges: xsync.NewMap[string, *bridge.Bridge](),
		logger:  logger,
	}
}

func (h *Hub) Register(id string, b *bridge.Bridge) {
	h.bridges.Store(id, b)
	h.logger.Debug("ws register", "session", id, "sessions", h.bridges.Size())
}

func (h *Hub) Unregister(id string) {
	if _, ok := h.bridges.LoadAndDelete(id); !ok {
		return
	}
	h.logger.Debug("ws unregister", "session", id)
}

func (h *Hub) Get(id string) (*bridge.Bridge, bool) {
	return h.bridges.Load(id)
}

func (h *Hub) Count() int {
	return h.bridges.Size()
}

// Broadcast calls handler name on every connected page without waiting for
// replies. It returns the number of pages the call was sent to.
func (h *Hub) Broadcast(name string, data any) int {
	sent := 0
	h.bridges.Range(func(id string, b *bridge.Bridge) bool {
		if err := b.CallHandler(name, data, nil); err != nil {
			h.logger.Warn("ws broadcast failed", "session", id, "handler", name, "err", err)
			return true
		}
		sent++
		return true
	})

	h.logger.Debug("ws broadcast", "handler", name, "recipients", sent)
	return sent
}
