// Package webview binds the bridge transport to an embedded webview: the
// page posts text through a bound function, the host evaluates a call to a
// well-known global to deliver text to the page.
package webview

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/arko-chat/hostbridge/internal/transport"
)

const (
	// PostBinding is the native function bound into the page.
	PostBinding = "__hostbridgePost"

	// ReceiveFunc is the page global the host calls with one envelope.
	ReceiveFunc = "_handleMessageFromFlutter"

	// ChannelObject is the page global exposing the send primitive.
	ChannelObject = "FlutterBridge"
)

// initScript installs ChannelObject.postMessage before any page script runs.
var initScript = fmt.Sprintf(`
(function () {
    if (window.%[1]s) return;
    window.%[1]s = {
        postMessage: function (text) { return window.%[2]s(String(text)); }
    };
})();
`, ChannelObject, PostBinding)

// Window is the part of a webview the binding needs. WebView satisfies it.
type Window interface {
	Init(js string)
	Eval(js string)
	Bind(name string, f interface{}) error
	Dispatch(f func())
}

// Binding is a transport.Sender that evaluates deliveries in the page.
type Binding struct {
	w      Window
	logger *slog.Logger
}

var _ transport.Sender = (*Binding)(nil)

func NewBinding(w Window, logger *slog.Logger) *Binding {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binding{w: w, logger: logger}
}

// Listen installs the page-side send primitive and routes what the page
// posts to recv.
func (b *Binding) Listen(recv transport.Receiver) error {
	b.w.Init(initScript)
	err := b.w.Bind(PostBinding, func(text string) {
		recv.Deliver(text)
	})
	if err != nil {
		return fmt.Errorf("webview: bind %s: %w", PostBinding, err)
	}
	return nil
}

// Send schedules evaluation of ReceiveFunc(text) on the UI thread.
func (b *Binding) Send(text string) error {
	js, err := DeliveryScript(text)
	if err != nil {
		return err
	}
	b.w.Dispatch(func() {
		b.w.Eval(js)
	})
	return nil
}

// DeliveryScript returns the script that hands text to the page. The text
// is passed as a JS string literal, never spliced in as code.
func DeliveryScript(text string) (string, error) {
	quoted, err := json.Marshal(text)
	if err != nil {
		return "", fmt.Errorf("webview: quote envelope: %w", err)
	}
	return fmt.Sprintf("window.%[1]s && window.%[1]s(%[2]s);", ReceiveFunc, quoted), nil
}
