package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/arko-chat/hostbridge/internal/bridge"
	"github.com/arko-chat/hostbridge/internal/nativeapi"
	"github.com/arko-chat/hostbridge/internal/ws"
)

// HandleBridgeWS attaches a host bridge to a websocket connection for as
// long as the connection lives.
func (h *Handler) HandleBridgeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}

	sessionID := middleware.GetReqID(r.Context())
	logger := h.logger.With("session", sessionID)

	client := ws.NewClient(conn, logger)
	b := bridge.New(client, bridge.WithLogger(logger))
	defer b.Close()

	h.host.Register(b, nativeapi.EncodingObject)
	if err := b.Init(nil); err != nil {
		logger.Error("bridge init failed", "err", err)
		client.Close()
		return
	}

	h.hub.Register(sessionID, b)
	defer h.hub.Unregister(sessionID)

	go client.WritePump()
	client.ReadPump(b)
}
