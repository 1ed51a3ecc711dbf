// Package service implements the host side of the convenience calls: the
// handlers a host shell registers so pages can reach device capabilities.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/toqueteos/webbrowser"

	"github.com/arko-chat/hostbridge/internal/bridge"
	"github.com/arko-chat/hostbridge/internal/cache"
	"github.com/arko-chat/hostbridge/internal/config"
	"github.com/arko-chat/hostbridge/internal/credentials"
	"github.com/arko-chat/hostbridge/internal/nativeapi"
	"github.com/arko-chat/hostbridge/internal/storage"
)

const h5DataKey = "h5data"

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

type DeviceInfo struct {
	DeviceID string `json:"deviceId"`
	Platform string `json:"platform"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Hostname string `json:"hostname,omitempty"`
}

type Result struct {
	Status string `json:"status"`
	Msg    string `json:"msg,omitempty"`
}

type TokenResult struct {
	Token string `json:"token"`
}

type AuthResult struct {
	Granted bool `json:"granted"`
}

type NetworkResult struct {
	Type string `json:"type"`
}

var okResult = Result{Status: "ok"}

// Host serves the convenience calls. One Host can serve any number of
// bridges.
type Host struct {
	store   *storage.Store
	perms   config.Permissions
	devices *cache.Memo[DeviceInfo]
	logger  *slog.Logger

	openURL  func(url string) error
	orient   func(Orientation) error
	network  func() string
	deviceID func() (string, error)
}

type Option func(*Host)

// WithOpenURL replaces the system browser launcher.
func WithOpenURL(fn func(url string) error) Option {
	return func(h *Host) { h.openURL = fn }
}

// WithOrientation sets the callback that applies setPortrait/setLandscape.
func WithOrientation(fn func(Orientation) error) Option {
	return func(h *Host) { h.orient = fn }
}

// WithNetworkProbe replaces the connection type probe.
func WithNetworkProbe(fn func() string) Option {
	return func(h *Host) { h.network = fn }
}

// WithDeviceID replaces the keyring-backed device id source.
func WithDeviceID(fn func() (string, error)) Option {
	return func(h *Host) { h.deviceID = fn }
}

func NewHost(store *storage.Store, perms config.Permissions, logger *slog.Logger, opts ...Option) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		store:    store,
		perms:    perms,
		devices:  cache.NewMemo[DeviceInfo](time.Hour),
		logger:   logger,
		openURL:  webbrowser.Open,
		network:  ConnectType,
		deviceID: credentials.DeviceID,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register installs every convenience handler on b. enc is the payload
// encoding the page on the other side of b uses.
func (h *Host) Register(b *bridge.Bridge, enc nativeapi.Encoding) {
	b.RegisterHandler(nativeapi.GetToken, bridge.HandleJSON(h.getToken))
	b.RegisterHandler(nativeapi.GetUserInfo, bridge.HandleJSON(h.getUserInfo))
	b.RegisterHandler(nativeapi.GetDeviceInfo, bridge.HandleJSON(h.getDeviceInfo))
	b.RegisterHandler(nativeapi.OpenLink, h.openLink)
	b.RegisterHandler(nativeapi.SetPortrait, bridge.HandleJSON(h.setOrientation(Portrait)))
	b.RegisterHandler(nativeapi.SetLandscape, bridge.HandleJSON(h.setOrientation(Landscape)))
	b.RegisterHandler(nativeapi.GetCameraAuth, bridge.HandleJSON(h.auth(h.perms.Camera)))
	b.RegisterHandler(nativeapi.GetLocationAuth, bridge.HandleJSON(h.auth(h.perms.Location)))
	b.RegisterHandler(nativeapi.GetMicrophoneAuth, bridge.HandleJSON(h.auth(h.perms.Microphone)))
	b.RegisterHandler(nativeapi.SaveH5Data, h.saveH5Data(enc))
	b.RegisterHandler(nativeapi.GetH5Data, h.getH5Data)
	b.RegisterHandler(nativeapi.GetNetworkConnectType, bridge.HandleJSON(h.getNetworkConnectType))
}

func (h *Host) getToken(_ context.Context, _ json.RawMessage) (TokenResult, error) {
	token, err := credentials.LoadToken()
	if err != nil {
		return TokenResult{}, fmt.Errorf("token unavailable: %w", err)
	}
	return TokenResult{Token: token}, nil
}

func (h *Host) getUserInfo(_ context.Context, _ json.RawMessage) (credentials.UserInfo, error) {
	info, err := credentials.LoadUserInfo()
	if err != nil {
		return credentials.UserInfo{}, fmt.Errorf("user info unavailable: %w", err)
	}
	return info, nil
}

func (h *Host) getDeviceInfo(_ context.Context, _ json.RawMessage) (DeviceInfo, error) {
	return h.devices.Get("self", func() (DeviceInfo, error) {
		id, err := h.deviceID()
		if err != nil {
			return DeviceInfo{}, err
		}
		hostname, _ := os.Hostname()
		return DeviceInfo{
			DeviceID: id,
			Platform: "desktop",
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			Hostname: hostname,
		}, nil
	})
}

func (h *Host) openLink(_ context.Context, data json.RawMessage, reply bridge.ReplyFunc) {
	respond := func(v any) {
		if reply != nil {
			reply(v)
		}
	}

	url, err := nativeapi.DecodeOpenLink(data)
	if err != nil {
		h.logger.Warn("openLink rejected", "err", err)
		respond(Result{Status: bridge.StatusError, Msg: err.Error()})
		return
	}
	if err := h.openURL(url); err != nil {
		h.logger.Error("openLink failed", "url", url, "err", err)
		respond(Result{Status: bridge.StatusError, Msg: err.Error()})
		return
	}
	respond(okResult)
}

func (h *Host) setOrientation(o Orientation) func(context.Context, json.RawMessage) (Result, error) {
	return func(context.Context, json.RawMessage) (Result, error) {
		if h.orient == nil {
			return Result{}, errors.New("orientation not supported")
		}
		if err := h.orient(o); err != nil {
			return Result{}, err
		}
		return okResult, nil
	}
}

func (h *Host) auth(granted bool) func(context.Context, json.RawMessage) (AuthResult, error) {
	return func(context.Context, json.RawMessage) (AuthResult, error) {
		return AuthResult{Granted: granted}, nil
	}
}

// saveH5Data stores the payload as sent. Only the string encoding wraps
// it, so only that one is unwrapped.
func (h *Host) saveH5Data(enc nativeapi.Encoding) bridge.Handler {
	return func(_ context.Context, data json.RawMessage, reply bridge.ReplyFunc) {
		if enc == nativeapi.EncodingString {
			data = nativeapi.Unwrap(data)
		}

		result := okResult
		if err := h.store.Put(h5DataKey, data); err != nil {
			h.logger.Error("saveH5Data failed", "err", err)
			result = Result{Status: bridge.StatusError, Msg: err.Error()}
		}
		if reply != nil {
			reply(result)
		}
	}
}

// getH5Data replies with the stored payload as-is, or null when nothing was
// saved yet.
func (h *Host) getH5Data(_ context.Context, _ json.RawMessage, reply bridge.ReplyFunc) {
	if reply == nil {
		return
	}
	raw, err := h.store.Get(h5DataKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		reply(nil)
	case err != nil:
		h.logger.Error("getH5Data failed", "err", err)
		reply(Result{Status: bridge.StatusError, Msg: err.Error()})
	default:
		reply(json.RawMessage(raw))
	}
}

func (h *Host) getNetworkConnectType(context.Context, json.RawMessage) (NetworkResult, error) {
	return NetworkResult{Type: h.network()}, nil
}
