// Package mobile is the gomobile entry point. Native code (Swift/Kotlin)
// owns the webview: it registers a Poster that hands envelopes to the page
// and calls Deliver with whatever the page posts. Hosts without a send
// primitive skip RegisterPoster and drain FetchQueue instead.
package mobile

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/arko-chat/hostbridge/internal/bridge"
	"github.com/arko-chat/hostbridge/internal/config"
	"github.com/arko-chat/hostbridge/internal/credentials"
	"github.com/arko-chat/hostbridge/internal/handlers"
	"github.com/arko-chat/hostbridge/internal/legacy"
	"github.com/arko-chat/hostbridge/internal/logger"
	"github.com/arko-chat/hostbridge/internal/middleware"
	"github.com/arko-chat/hostbridge/internal/nativeapi"
	"github.com/arko-chat/hostbridge/internal/router"
	"github.com/arko-chat/hostbridge/internal/service"
	"github.com/arko-chat/hostbridge/internal/storage"
	"github.com/arko-chat/hostbridge/internal/transport"
	"github.com/arko-chat/hostbridge/internal/ws"
)

// Poster is implemented by the native side.
//
// Rules for gomobile compatibility:
//   - methods may only use primitive types, strings, []byte, or other
//     gomobile-bound types as parameters and return values
//   - errors are returned as a second return value
type Poster interface {
	// PostMessage evaluates the page's receive entry point with text.
	PostMessage(text string) error
}

var (
	mu         sync.Mutex
	stopFunc   func()
	pageBridge *bridge.Bridge
	pageQueue  *legacy.Queue
	token      string

	native    transport.Swappable
	hasPoster bool
)

// RegisterPoster installs the native send primitive. Call it before Start
// to get the direct channel; a later call only swaps the target. nil
// removes it.
func RegisterPoster(p Poster) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		native.Set(nil)
		hasPoster = false
		return
	}
	native.Set(transport.SenderFunc(p.PostMessage))
	hasPoster = true
}

// SetSession stores the signed-in user (JSON) and access token that
// getToken and getUserInfo hand to the page.
func SetSession(userJSON, accessToken string) error {
	return credentials.ImportSession(userJSON, accessToken)
}

func ClearSession() {
	credentials.DeleteSession()
}

// Start brings up the page bridge and the local bridge server and returns
// the server address.
func Start(dataDir string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if stopFunc != nil {
		return "", fmt.Errorf("server already running")
	}

	slogger := logger.JSON(os.Stdout, true)

	store, err := storage.Open(filepath.Join(dataDir, "h5"))
	if err != nil {
		return "", fmt.Errorf("failed to open store: %w", err)
	}

	cfg, err := config.LoadFrom(dataDir)
	if err != nil {
		store.Close()
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	launch, err := middleware.NewLaunch()
	if err != nil {
		store.Close()
		return "", err
	}

	host := service.NewHost(store, cfg.Permissions, slogger)

	var direct transport.Sender
	if hasPoster {
		direct = &native
	}
	queue := legacy.NewQueue(nil, slogger)
	sender := transport.Select(direct, queue)

	b := bridge.New(sender, bridge.WithLogger(slogger))

	var session *legacy.Session
	enc := nativeapi.EncodingObject
	if _, polling := sender.(*legacy.Queue); polling {
		session = &legacy.Session{Queue: queue, Bridge: b}
		enc = nativeapi.EncodingString
	}

	host.Register(b, enc)
	if err := b.Init(nil); err != nil {
		store.Close()
		return "", err
	}

	hub := ws.NewHub(slogger)
	mux := router.New(handlers.New(host, hub, session, slogger), launch)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		b.Close()
		store.Close()
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	addr := fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)
	slogger.Info("mobile server starting", "addr", addr, "legacy", session != nil)

	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			slogger.Error("server error", "err", err)
		}
	}()

	pageBridge = b
	if session != nil {
		pageQueue = queue
	}
	token = launch.Token()
	stopFunc = func() {
		srv.Close()
		listener.Close()
		b.Close()
		store.Close()
	}

	return addr, nil
}

// Token is the launch token the page must present on the bridge endpoints.
func Token() string {
	mu.Lock()
	defer mu.Unlock()
	return token
}

// Deliver hands one envelope posted by the page to the bridge.
func Deliver(text string) {
	mu.Lock()
	b := pageBridge
	mu.Unlock()

	if b == nil {
		slog.Default().Warn("mobile: delivery before Start dropped")
		return
	}
	b.Deliver(text)
}

// FetchQueue drains the envelopes waiting for a page without a direct
// channel, as one JSON array. It is "[]" when a Poster is in use.
func FetchQueue() string {
	mu.Lock()
	q := pageQueue
	mu.Unlock()

	if q == nil {
		return "[]"
	}
	return q.Fetch()
}

// Stop dispatches whatever the page already delivered, then shuts down.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if stopFunc != nil {
		pageBridge.Settle()
		stopFunc()
		stopFunc = nil
		pageBridge = nil
		pageQueue = nil
		token = ""
	}
}
