// Package legacy implements the polling binding kept for older host
// integrations: outbound envelopes are queued, the other side is signalled
// with a synthetic URL and drains the queue on its own schedule.
package legacy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arko-chat/hostbridge/internal/transport"
)

const (
	Scheme          = "flutter"
	QueueHasMessage = "__QUEUE_MESSAGE__/"
)

// SignalURL is the URL navigated to announce that the queue is not empty.
func SignalURL() string {
	return Scheme + "://" + QueueHasMessage
}

// Queue is a transport.Sender that buffers envelopes until fetched.
type Queue struct {
	mu     sync.Mutex
	queue  []json.RawMessage
	signal func(url string)
	logger *slog.Logger
}

var _ transport.Sender = (*Queue)(nil)

// NewQueue returns an empty queue. signal, if not nil, runs after every
// send with SignalURL.
func NewQueue(signal func(url string), logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{signal: signal, logger: logger}
}

func (q *Queue) Send(text string) error {
	if !json.Valid([]byte(text)) {
		return fmt.Errorf("legacy: queued text is not JSON")
	}

	q.mu.Lock()
	q.queue = append(q.queue, json.RawMessage(text))
	n := len(q.queue)
	q.mu.Unlock()

	q.logger.Debug("legacy: queued envelope", "queued", n)
	if q.signal != nil {
		q.signal(SignalURL())
	}
	return nil
}

// Fetch drains the queue and returns its contents as one JSON array.
func (q *Queue) Fetch() string {
	q.mu.Lock()
	queued := q.queue
	q.queue = nil
	q.mu.Unlock()

	if len(queued) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(queued)
	if err != nil {
		q.logger.Error("legacy: encode queue", "err", err)
		return "[]"
	}
	return string(raw)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Split turns a fetched queue back into individual envelope texts.
func Split(fetched string) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(fetched), &items); err != nil {
		return nil, fmt.Errorf("legacy: decode queue: %w", err)
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = string(item)
	}
	return out, nil
}

// Drain fetches the queue and delivers each envelope to recv in order.
func (q *Queue) Drain(recv transport.Receiver) int {
	texts, err := Split(q.Fetch())
	if err != nil {
		q.logger.Error("legacy: drain", "err", err)
		return 0
	}
	for _, text := range texts {
		recv.Deliver(text)
	}
	return len(texts)
}
