// Package nativeapi holds the fixed-name calls a page makes to its host and
// the payload encodings existing host integrations expect.
package nativeapi

import (
	"encoding/json"
	"fmt"

	"github.com/arko-chat/hostbridge/internal/bridge"
)

const (
	GetToken              = "getToken"
	GetUserInfo           = "getUserInfo"
	GetDeviceInfo         = "getDeviceInfo"
	OpenLink              = "openLink"
	SetPortrait           = "setPortrait"
	SetLandscape          = "setLandscape"
	GetCameraAuth         = "getCameraAuth"
	GetLocationAuth       = "getLocationAuth"
	GetMicrophoneAuth     = "getMicrophoneAuth"
	SaveH5Data            = "saveH5Data"
	GetH5Data             = "getH5Data"
	GetNetworkConnectType = "getNetworkConnectType"
)

// Names lists every convenience handler name.
var Names = []string{
	GetToken, GetUserInfo, GetDeviceInfo, OpenLink,
	SetPortrait, SetLandscape,
	GetCameraAuth, GetLocationAuth, GetMicrophoneAuth,
	SaveH5Data, GetH5Data, GetNetworkConnectType,
}

// Encoding selects how request payloads are shaped on the wire.
type Encoding int

const (
	// EncodingObject sends plain JSON objects; used by the direct channel.
	EncodingObject Encoding = iota
	// EncodingString sends JSON-encoded strings for openLink and
	// saveH5Data and null elsewhere; used by the legacy channel.
	EncodingString
)

// Caller is the part of a bridge the client needs.
type Caller interface {
	CallHandler(name string, data any, onResponse bridge.ResponseFunc) error
}

type Client struct {
	c   Caller
	enc Encoding
}

func New(c Caller, enc Encoding) *Client {
	return &Client{c: c, enc: enc}
}

type openLinkPayload struct {
	URL string `json:"url"`
}

func (c *Client) emptyObject() any {
	if c.enc == EncodingString {
		return nil
	}
	return struct{}{}
}

func (c *Client) GetToken(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(GetToken, c.emptyObject(), cb)
}

func (c *Client) GetUserInfo(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(GetUserInfo, nil, cb)
}

func (c *Client) GetDeviceInfo(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(GetDeviceInfo, c.emptyObject(), cb)
}

func (c *Client) OpenLink(url string, cb bridge.ResponseFunc) error {
	payload, err := c.encode(openLinkPayload{URL: url})
	if err != nil {
		return err
	}
	return c.c.CallHandler(OpenLink, payload, cb)
}

func (c *Client) SetPortrait(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(SetPortrait, nil, cb)
}

func (c *Client) SetLandscape(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(SetLandscape, nil, cb)
}

func (c *Client) GetCameraAuth(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(GetCameraAuth, nil, cb)
}

func (c *Client) GetLocationAuth(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(GetLocationAuth, nil, cb)
}

func (c *Client) GetMicrophoneAuth(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(GetMicrophoneAuth, nil, cb)
}

func (c *Client) SaveH5Data(data any, cb bridge.ResponseFunc) error {
	payload, err := c.encode(data)
	if err != nil {
		return err
	}
	return c.c.CallHandler(SaveH5Data, payload, cb)
}

func (c *Client) GetH5Data(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(GetH5Data, nil, cb)
}

func (c *Client) GetNetworkConnectType(cb bridge.ResponseFunc) error {
	return c.c.CallHandler(GetNetworkConnectType, nil, cb)
}

// encode applies the string encoding: the value is marshalled and sent as a
// JSON string. With the object encoding it is passed through.
func (c *Client) encode(v any) (any, error) {
	if c.enc != EncodingString {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("nativeapi: encode payload: %w", err)
	}
	return string(raw), nil
}

// Unwrap undoes the string encoding on the receiving side: a JSON string
// whose content is itself JSON is replaced by that content. Anything else
// is returned unchanged.
func Unwrap(data json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return data
	}
	if !json.Valid([]byte(s)) {
		return data
	}
	return json.RawMessage(s)
}

// DecodeOpenLink reads an openLink payload in either encoding.
func DecodeOpenLink(data json.RawMessage) (string, error) {
	var p openLinkPayload
	if err := json.Unmarshal(Unwrap(data), &p); err != nil {
		return "", fmt.Errorf("nativeapi: decode openLink: %w", err)
	}
	if p.URL == "" {
		return "", fmt.Errorf("nativeapi: openLink without url")
	}
	return p.URL, nil
}
