package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/arko-chat/hostbridge/internal/legacy"
	"github.com/arko-chat/hostbridge/internal/service"
	"github.com/arko-chat/hostbridge/internal/ws"
)

type Handler struct {
	host     *service.Host
	hub      *ws.Hub
	legacy   *legacy.Session
	origins  map[string]bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// New builds the HTTP handlers. legacySession is nil when the page has a
// direct channel; the polling endpoints are then not served. Browsers may
// open the bridge websocket from loopback origins and from allowedOrigins.
func New(host *service.Host, hub *ws.Hub, legacySession *legacy.Session, logger *slog.Logger, allowedOrigins ...string) *Handler {
	h := &Handler{
		host:    host,
		hub:     hub,
		legacy:  legacySession,
		origins: make(map[string]bool, len(allowedOrigins)),
		logger:  logger,
	}
	for _, o := range allowedOrigins {
		if o = Origin(o); o != "" {
			h.origins[o] = true
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Legacy reports whether the polling endpoints are served.
func (h *Handler) Legacy() bool {
	return h.legacy != nil
}

func (h *Handler) serverError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	h.logger.Error("handler error", "path", r.URL.Path, "err", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
