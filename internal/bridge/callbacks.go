package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/puzpuzpuz/xsync/v4"
)

// consumedWindow bounds how many resolved ids are remembered for telling a
// duplicate response apart from a stray one.
const consumedWindow = 1024

// ResponseFunc is the continuation run when the response to a call arrives.
type ResponseFunc func(data json.RawMessage)

type callbackRegistry struct {
	pending  *xsync.Map[string, ResponseFunc]
	consumed *lru.Cache[string, struct{}]
	seq      atomic.Uint64
	now      func() time.Time
	logger   *slog.Logger
}

func newCallbackRegistry(now func() time.Time, logger *slog.Logger) *callbackRegistry {
	consumed, _ := lru.New[string, struct{}](consumedWindow)
	return &callbackRegistry{
		pending:  xsync.NewMap[string, ResponseFunc](),
		consumed: consumed,
		now:      now,
		logger:   logger,
	}
}

// allocate stores fn under a fresh correlation id and returns the id.
func (r *callbackRegistry) allocate(fn ResponseFunc) string {
	id := fmt.Sprintf("cb_%d_%d", r.seq.Add(1), r.now().UnixMilli())
	r.pending.Store(id, fn)
	return id
}

// resolve consumes the continuation for id and runs it. A missing entry is
// not an error: the response is a duplicate or arrived for a page context
// that no longer waits for it.
func (r *callbackRegistry) resolve(id string, data json.RawMessage) bool {
	fn, ok := r.pending.LoadAndDelete(id)
	if !ok {
		if r.consumed.Contains(id) {
			r.logger.Warn("bridge: duplicate response dropped", "responseId", id)
		} else {
			r.logger.Warn("bridge: no callback for response", "responseId", id)
		}
		return false
	}
	r.consumed.Add(id, struct{}{})
	fn(data)
	return true
}

// forget drops an entry whose request never left this side.
func (r *callbackRegistry) forget(id string) {
	r.pending.Delete(id)
}

func (r *callbackRegistry) len() int {
	return r.pending.Size()
}
