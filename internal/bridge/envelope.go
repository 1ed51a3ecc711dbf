package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the unit exchanged over the transport. A request carries
// HandlerName, a response carries ResponseID; an envelope with neither is a
// raw message sent with Send.
type Envelope struct {
	HandlerName  string          `json:"handlerName,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	CallbackID   string          `json:"callbackId,omitempty"`
	ResponseID   string          `json:"responseId,omitempty"`
	ResponseData json.RawMessage `json:"responseData,omitempty"`
}

func (e Envelope) IsResponse() bool {
	return e.ResponseID != ""
}

func (e Envelope) IsRequest() bool {
	return e.HandlerName != ""
}

// ExpectsReply reports whether the sender of a request is waiting for a
// response envelope.
func (e Envelope) ExpectsReply() bool {
	return !e.IsResponse() && e.CallbackID != ""
}

func encodeEnvelope(e Envelope) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return string(raw), nil
}

func decodeEnvelope(text string) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal([]byte(text), &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.IsRequest() && e.IsResponse() {
		return Envelope{}, fmt.Errorf("decode envelope: both handlerName %q and responseId %q set", e.HandlerName, e.ResponseID)
	}
	e.Data = normalizePayload(e.Data)
	e.ResponseData = normalizePayload(e.ResponseData)
	return e, nil
}

// encodePayload turns an arbitrary value into an opaque payload. Raw JSON is
// passed through untouched, nil becomes an absent payload.
func encodePayload(v any) (json.RawMessage, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return normalizePayload(p), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return normalizePayload(raw), nil
}

func normalizePayload(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}
