package bridge

import (
	"context"
	"encoding/json"
	"fmt"
)

// RemoteError is returned by Expect when the other side answered with an
// error status.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string {
	return "bridge: remote error: " + e.Msg
}

// HandleJSON adapts a typed function to a Handler. The request payload is
// decoded into Req; the result is sent back as the reply, an error as an
// error status. An absent payload leaves Req at its zero value.
func HandleJSON[Req, Resp any](fn func(ctx context.Context, req Req) (Resp, error)) Handler {
	return func(ctx context.Context, data json.RawMessage, reply ReplyFunc) {
		var req Req
		if len(data) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				if reply != nil {
					reply(errorStatus(fmt.Sprintf("invalid payload: %v", err)))
				}
				return
			}
		}

		resp, err := fn(ctx, req)
		if reply == nil {
			return
		}
		if err != nil {
			reply(errorStatus(err.Error()))
			return
		}
		reply(resp)
	}
}

// Expect adapts a typed callback to a ResponseFunc. Error statuses surface
// as *RemoteError, undecodable payloads as a decode error.
func Expect[T any](fn func(T, error)) ResponseFunc {
	return func(data json.RawMessage) {
		var v T
		if s, ok := AsStatus(data); ok {
			fn(v, &RemoteError{Msg: s.Msg})
			return
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &v); err != nil {
				fn(v, fmt.Errorf("bridge: decode response: %w", err))
				return
			}
		}
		fn(v, nil)
	}
}
