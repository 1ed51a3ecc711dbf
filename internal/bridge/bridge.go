// Package bridge implements the correlation and dispatch protocol spoken
// between an embedded web page and its host shell over a one-way,
// string-only transport.
//
// Outbound calls are paired with their asynchronous responses through
// correlation ids; inbound requests are routed to handlers registered by
// name. Every inbound envelope is dispatched on the bridge's own loop, never
// inside the transport's delivery call.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arko-chat/hostbridge/internal/loop"
	"github.com/arko-chat/hostbridge/internal/transport"
)

type Bridge struct {
	sender    transport.Sender
	loop      *loop.Loop
	callbacks *callbackRegistry
	handlers  *handlerRegistry
	logger    *slog.Logger
	now       func() time.Time
	autoReady time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	initialized    bool
	closed         bool
	defaultHandler Handler
	inbox          []string
	ready          chan struct{}
	readyFired     bool
	readyCallbacks []func(*Bridge)
	autoReadyTimer *time.Timer
}

var _ transport.Receiver = (*Bridge)(nil)

// New creates a bridge that sends through sender. sender may be nil, in
// which case every outbound call reports the channel as unavailable.
func New(sender transport.Sender, opts ...Option) *Bridge {
	b := &Bridge{
		sender: sender,
		logger: slog.Default(),
		now:    time.Now,
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.loop = loop.New(b.logger)
	b.callbacks = newCallbackRegistry(b.now, b.logger)
	b.handlers = newHandlerRegistry()

	if b.autoReady > 0 && sender != nil {
		b.autoReadyTimer = time.AfterFunc(b.autoReady, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if !b.closed {
				b.fireReadyLocked()
			}
		})
	}

	return b
}

// RegisterHandler makes h reachable under name. A later registration under
// the same name replaces the earlier one.
func (b *Bridge) RegisterHandler(name string, h Handler) {
	b.logger.Debug("bridge: register handler", "handler", name)
	b.handlers.register(name, h)
}

// Init completes setup: it records the handler for raw messages, dispatches
// everything delivered so far in arrival order and fires readiness. It may
// run once; a second call returns ErrAlreadyInitialized.
func (b *Bridge) Init(defaultHandler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.initialized {
		return ErrAlreadyInitialized
	}

	b.initialized = true
	b.defaultHandler = defaultHandler

	buffered := b.inbox
	b.inbox = nil
	for _, text := range buffered {
		b.schedule(text)
	}
	b.logger.Debug("bridge: initialized", "buffered", len(buffered))

	b.fireReadyLocked()
	return nil
}

// Deliver is the entry point the other side calls with one encoded
// envelope. It never dispatches synchronously: before Init the text is
// buffered, after Init it is queued for the next turn of the loop.
func (b *Bridge) Deliver(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.logger.Warn("bridge: delivery after close dropped")
		return
	}
	if !b.initialized {
		b.inbox = append(b.inbox, text)
		return
	}
	b.schedule(text)
}

func (b *Bridge) schedule(text string) {
	b.loop.Post(func() { b.dispatch(text) })
}

// CallHandler asks the other side to run its handler registered under
// name. onResponse, if not nil, runs once when the matching response
// arrives; it never runs if no response ever comes.
func (b *Bridge) CallHandler(name string, data any, onResponse ResponseFunc) error {
	if name == "" {
		return fmt.Errorf("bridge: call with empty handler name")
	}
	payload, err := encodePayload(data)
	if err != nil {
		return err
	}
	return b.send(Envelope{HandlerName: name, Data: payload}, onResponse)
}

// Send fires a raw envelope without a handler name. The other side routes
// it to the message handler it passed to Init.
func (b *Bridge) Send(data any, onResponse ResponseFunc) error {
	payload, err := encodePayload(data)
	if err != nil {
		return err
	}
	return b.send(Envelope{Data: payload}, onResponse)
}

func (b *Bridge) send(env Envelope, onResponse ResponseFunc) error {
	if b.isClosed() {
		return ErrClosed
	}

	if onResponse != nil {
		env.CallbackID = b.callbacks.allocate(onResponse)
	}

	text, err := encodeEnvelope(env)
	if err != nil {
		b.callbacks.forget(env.CallbackID)
		return err
	}

	b.logger.Debug("bridge: send",
		"handler", env.HandlerName,
		"callbackId", env.CallbackID,
		"responseId", env.ResponseID,
	)

	err = transport.ErrUnavailable
	if b.sender != nil {
		err = b.sender.Send(text)
	}
	if err == nil {
		return nil
	}

	if env.CallbackID != "" {
		b.callbacks.forget(env.CallbackID)
	}
	if errors.Is(err, transport.ErrUnavailable) {
		b.logger.Error("bridge: host channel unavailable", "handler", env.HandlerName)
		if onResponse != nil {
			onResponse(errorStatus("host channel unavailable"))
			return nil
		}
	}
	return fmt.Errorf("bridge: send %q: %w", env.HandlerName, err)
}

// Ready is closed once readiness fires.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// OnReady runs fn on the loop once readiness fires. Callbacks registered
// before that run in registration order; later ones run on the next turn.
func (b *Bridge) OnReady(fn func(*Bridge)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.readyFired {
		b.loop.Post(func() { fn(b) })
		return
	}
	b.readyCallbacks = append(b.readyCallbacks, fn)
}

func (b *Bridge) fireReadyLocked() {
	if b.readyFired {
		return
	}
	b.readyFired = true
	close(b.ready)

	callbacks := b.readyCallbacks
	b.readyCallbacks = nil
	for _, fn := range callbacks {
		fn := fn
		b.loop.Post(func() { fn(b) })
	}
	b.logger.Debug("bridge: ready", "callbacks", len(callbacks))
}

// Settle waits until every envelope delivered after Init so far has been
// dispatched. It must not be called from a handler or continuation.
func (b *Bridge) Settle() bool {
	return b.loop.Sync()
}

// Pending returns the number of calls still waiting for a response.
func (b *Bridge) Pending() int {
	return b.callbacks.len()
}

// Close stops the loop. Queued envelopes are dropped and handlers see their
// context cancelled.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.inbox = nil
	if b.autoReadyTimer != nil {
		b.autoReadyTimer.Stop()
	}
	b.mu.Unlock()

	b.cancel()
	b.loop.Close()
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
