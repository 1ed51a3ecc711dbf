package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

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
	"github.com/arko-chat/hostbridge/internal/webview"
	"github.com/arko-chat/hostbridge/internal/ws"
)

const placeholder = `<!doctype html><p>hostbridge is running. Set <code>start_url</code> in the config to load a page.</p>`

func main() {
	slogger := logger.New(os.Stdout, true)

	os.Setenv("WEBKIT_DISABLE_COMPOSITING_MODE", "0")

	cfg, err := config.Load()
	if err != nil {
		slogger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	if cfg.SessionToken != "" {
		if err := credentials.ImportSession(cfg.SessionUser, cfg.SessionToken); err != nil {
			slogger.Error("failed to import session", "err", err)
			os.Exit(1)
		}
		slogger.Info("session imported from environment")
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		slogger.Error("failed to create data directory", "err", err)
		os.Exit(1)
	}

	store, err := storage.Open(filepath.Join(cfg.DataDir, "h5"))
	if err != nil {
		slogger.Error("failed to open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	launch, err := middleware.NewLaunch()
	if err != nil {
		slogger.Error("failed to create launch token", "err", err)
		os.Exit(1)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		slogger.Error("failed to listen", "err", err)
		os.Exit(1)
	}
	addr := fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)

	w := webview.New(true)
	defer w.Destroy()
	w.SetTitle("Host Bridge")
	w.SetSize(1040, 768, webview.HintMin)

	host := service.NewHost(store, cfg.Permissions, slogger,
		service.WithOrientation(func(o service.Orientation) error {
			w.Dispatch(func() {
				if o == service.Portrait {
					w.SetSize(768, 1040, webview.HintNone)
				} else {
					w.SetSize(1040, 768, webview.HintNone)
				}
			})
			return nil
		}),
	)

	var direct transport.Sender
	var binding *webview.Binding
	if !cfg.Legacy {
		binding = webview.NewBinding(w, slogger)
		direct = binding
	}

	// Without a direct channel the window drains the queue itself: every
	// signal evaluates the queued envelopes in the page.
	var queue *legacy.Queue
	queue = legacy.NewQueue(func(string) {
		w.Dispatch(func() {
			queue.Drain(transport.ReceiverFunc(func(text string) {
				js, err := webview.DeliveryScript(text)
				if err != nil {
					slogger.Error("legacy delivery dropped", "err", err)
					return
				}
				w.Eval(js)
			}))
		})
	}, slogger)

	sender := transport.Select(direct, queue)
	opts := []bridge.Option{bridge.WithLogger(slogger)}
	if direct != nil {
		opts = append(opts, bridge.WithAutoReady(time.Duration(cfg.AutoReadyMS)*time.Millisecond))
	}
	windowBridge := bridge.New(sender, opts...)
	defer windowBridge.Close()

	var session *legacy.Session
	enc := nativeapi.EncodingObject
	if _, polling := sender.(*legacy.Queue); polling {
		session = &legacy.Session{Queue: queue, Bridge: windowBridge}
		enc = nativeapi.EncodingString
		deliverURL := addr + "/bridge/legacy/deliver?" + middleware.TokenParam + "=" + url.QueryEscape(launch.Token())
		w.Init(legacy.PageScript(deliverURL))
	} else if err := binding.Listen(windowBridge); err != nil {
		slogger.Error("failed to bind window", "err", err)
		os.Exit(1)
	}

	host.Register(windowBridge, enc)
	if err := windowBridge.Init(nil); err != nil {
		slogger.Error("failed to init window bridge", "err", err)
		os.Exit(1)
	}

	hub := ws.NewHub(slogger)
	h := handlers.New(host, hub, session, slogger, cfg.StartURL)
	mux := router.New(h, launch)

	slogger.Info("server starting", "addr", addr, "legacy", session != nil)

	srv := &http.Server{Handler: mux}
	var g errgroup.Group
	g.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.StartURL != "" {
		w.Navigate(cfg.StartURL)
	} else {
		w.SetHtml(placeholder)
	}
	w.Run()

	slogger.Info("window closed, shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slogger.Warn("server shutdown", "err", err)
	}
	if err := g.Wait(); err != nil {
		slogger.Error("server error", "err", err)
	}
}
