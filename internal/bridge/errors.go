package bridge

import (
	"encoding/json"
	"errors"
)

var (
	ErrAlreadyInitialized = errors.New("bridge: init called twice")
	ErrClosed             = errors.New("bridge: closed")
)

const StatusError = "error"

// Status is the error-shaped payload sent back in place of a real response
// when a request cannot be served.
type Status struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

func errorStatus(msg string) json.RawMessage {
	raw, _ := json.Marshal(Status{Status: StatusError, Msg: msg})
	return raw
}

// AsStatus reports whether a response payload is an error status.
func AsStatus(data json.RawMessage) (Status, bool) {
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, false
	}
	return s, s.Status == StatusError
}
