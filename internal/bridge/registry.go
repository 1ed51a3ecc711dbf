package bridge

import (
	"context"
	"encoding/json"

	"github.com/puzpuzpuz/xsync/v4"
)

// ReplyFunc sends a response back to the caller of a request. It is nil when
// the caller did not ask for a reply. Calling it more than once sends more
// than one response; the other side resolves only the first.
type ReplyFunc func(data any)

// Handler serves a request addressed to its registered name.
type Handler func(ctx context.Context, data json.RawMessage, reply ReplyFunc)

type handlerRegistry struct {
	handlers *xsync.Map[string, Handler]
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{handlers: xsync.NewMap[string, Handler]()}
}

// register stores h under name, replacing any previous handler.
func (r *handlerRegistry) register(name string, h Handler) {
	r.handlers.Store(name, h)
}

func (r *handlerRegistry) lookup(name string) (Handler, bool) {
	return r.handlers.Load(name)
}
