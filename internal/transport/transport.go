// Package transport defines the one-way, string-only channel the bridge runs
// over. A binding supplies a Sender for outbound text and hands inbound text
// to a Receiver.
package transport

import (
	"errors"
	"sync"
)

var ErrUnavailable = errors.New("transport: host channel unavailable")

// Sender delivers one encoded envelope to the other side. It must not block
// waiting for a reply.
type Sender interface {
	Send(text string) error
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(text string) error

func (f SenderFunc) Send(text string) error {
	return f(text)
}

// Receiver is the well-known entry point the other side calls with one
// encoded envelope.
type Receiver interface {
	Deliver(text string)
}

// ReceiverFunc adapts a plain function to Receiver.
type ReceiverFunc func(text string)

func (f ReceiverFunc) Deliver(text string) {
	f(text)
}

// Select returns the direct sender when one is present. The legacy binding
// is only used when no direct send primitive exists.
func Select(direct, legacy Sender) Sender {
	if direct != nil {
		return direct
	}
	return legacy
}

// Swappable is a Sender whose target can be attached after construction,
// for hosts that install the send primitive after the bridge exists.
type Swappable struct {
	mu     sync.RWMutex
	target Sender
}

func (s *Swappable) Set(target Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
}

func (s *Swappable) Send(text string) error {
	s.mu.RLock()
	target := s.target
	s.mu.RUnlock()

	if target == nil {
		return ErrUnavailable
	}
	return target.Send(text)
}
