package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/arko-chat/hostbridge/internal/bridge"
	"github.com/arko-chat/hostbridge/internal/config"
	"github.com/arko-chat/hostbridge/internal/credentials"
	"github.com/arko-chat/hostbridge/internal/handlers"
	"github.com/arko-chat/hostbridge/internal/legacy"
	"github.com/arko-chat/hostbridge/internal/middleware"
	"github.com/arko-chat/hostbridge/internal/nativeapi"
	"github.com/arko-chat/hostbridge/internal/service"
	"github.com/arko-chat/hostbridge/internal/storage"
	"github.com/arko-chat/hostbridge/internal/ws"
)

type env struct {
	srv    *httptest.Server
	legacy *legacy.Session
	hub    *ws.Hub
	launch *middleware.Launch
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, true)
}

func newEnvWith(t *testing.T, polling bool) *env {
	t.Helper()
	keyring.MockInit()

	store, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.Default()
	host := service.NewHost(store, config.Permissions{Microphone: true}, logger,
		service.WithNetworkProbe(func() string { return "ethernet" }),
	)

	var session *legacy.Session
	if polling {
		session = legacy.NewSession(nil, logger)
		t.Cleanup(session.Close)
		host.Register(session.Bridge, nativeapi.EncodingString)
		require.NoError(t, session.Bridge.Init(nil))
	}

	launch, err := middleware.NewLaunch()
	require.NoError(t, err)

	hub := ws.NewHub(logger)
	h := handlers.New(host, hub, session, logger, "https://app.example/index.html")
	srv := httptest.NewServer(New(h, launch))
	t.Cleanup(srv.Close)

	return &env{srv: srv, legacy: session, hub: hub, launch: launch}
}

func (e *env) wsURL(withToken bool) string {
	u := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/bridge/ws"
	if withToken {
		u += "?" + middleware.TokenParam + "=" + url.QueryEscape(e.launch.Token())
	}
	return u
}

// request sends an authenticated request to the bridge endpoints.
func (e *env) request(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(middleware.TokenHeader, e.launch.Token())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func waitData(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("no response")
	}
	return nil
}

func TestHealth(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestBridgeWebsocket(t *testing.T) {
	e := newEnv(t)

	conn, _, err := websocket.DefaultDialer.Dial(e.wsURL(true), nil)
	require.NoError(t, err)

	client := ws.NewClient(conn, nil)
	page := bridge.New(client)
	t.Cleanup(page.Close)
	t.Cleanup(client.Close)
	require.NoError(t, page.Init(nil))
	go client.WritePump()
	go client.ReadPump(page)

	api := nativeapi.New(page, nativeapi.EncodingObject)
	got := make(chan json.RawMessage, 1)
	require.NoError(t, api.GetMicrophoneAuth(func(data json.RawMessage) { got <- data }))
	assert.JSONEq(t, `{"granted":true}`, string(waitData(t, got)))

	require.NoError(t, page.CallHandler("nope", nil, func(data json.RawMessage) { got <- data }))
	status, ok := bridge.AsStatus(waitData(t, got))
	require.True(t, ok)
	assert.Equal(t, "handler not found: nope", status.Msg)

	assert.Equal(t, 1, e.hub.Count())
}

func TestLegacyPolling(t *testing.T) {
	e := newEnv(t)

	deliver := `{"handlerName":"getNetworkConnectType","callbackId":"cb_1_1700000000000"}`
	resp := e.request(t, http.MethodPost, "/bridge/legacy/deliver", deliver)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool { return e.legacy.Queue.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	resp = e.request(t, http.MethodGet, "/bridge/legacy/queue", "")
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	texts, err := legacy.Split(string(raw))
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.JSONEq(t, `{"responseId":"cb_1_1700000000000","responseData":{"type":"ethernet"}}`, texts[0])

	resp = e.request(t, http.MethodGet, "/bridge/legacy/queue", "")
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "[]", string(raw))
}

func TestLegacyDeliverRejectsEmpty(t *testing.T) {
	e := newEnv(t)

	resp := e.request(t, http.MethodPost, "/bridge/legacy/deliver", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBridgeAccess(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, credentials.StoreSession(credentials.UserInfo{UserID: "u-1"}, "launch-secret"))

	dial := func(withToken bool, origin string) (*websocket.Conn, int) {
		header := http.Header{}
		if origin != "" {
			header.Set("Origin", origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(e.wsURL(withToken), header)
		if err != nil {
			require.NotNil(t, resp, err)
			return nil, resp.StatusCode
		}
		t.Cleanup(func() { conn.Close() })
		return conn, http.StatusSwitchingProtocols
	}

	t.Run("foreign origin is refused even with a token", func(t *testing.T) {
		conn, status := dial(true, "https://evil.example")
		assert.Nil(t, conn)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("missing token is refused", func(t *testing.T) {
		conn, status := dial(false, "")
		assert.Nil(t, conn)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	for _, origin := range []string{"", "http://127.0.0.1:5173", "http://localhost", "https://app.example"} {
		t.Run("accepted origin "+origin, func(t *testing.T) {
			conn, status := dial(true, origin)
			require.NotNil(t, conn)
			assert.Equal(t, http.StatusSwitchingProtocols, status)
		})
	}

	t.Run("token reaches the page only through an accepted connection", func(t *testing.T) {
		conn, _ := dial(true, "http://127.0.0.1")
		require.NotNil(t, conn)

		client := ws.NewClient(conn, nil)
		page := bridge.New(client)
		t.Cleanup(page.Close)
		t.Cleanup(client.Close)
		require.NoError(t, page.Init(nil))
		go client.WritePump()
		go client.ReadPump(page)

		got := make(chan json.RawMessage, 1)
		require.NoError(t, nativeapi.New(page, nativeapi.EncodingObject).GetToken(func(data json.RawMessage) { got <- data }))
		assert.JSONEq(t, `{"token":"launch-secret"}`, string(waitData(t, got)))
	})

	t.Run("legacy endpoints need the token", func(t *testing.T) {
		resp, err := http.Get(e.srv.URL + "/bridge/legacy/queue")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestDirectOnly(t *testing.T) {
	e := newEnvWith(t, false)

	resp := e.request(t, http.MethodGet, "/bridge/legacy/queue", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err := http.Get(e.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["legacy"])
	assert.NotContains(t, body, "ready")
}
