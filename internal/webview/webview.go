package webview

import (
	webview "github.com/webview/webview_go"
)

type WebView = webview.WebView

const (
	// HintNone specifies that width and height are default size
	HintNone = webview.HintNone

	// HintFixed specifies that window size can not be changed by a user
	HintFixed = webview.HintFixed

	// HintMin specifies that width and height are minimum bounds
	HintMin = webview.HintMin

	// HintMax specifies that width and height are maximum bounds
	HintMax = webview.HintMax
)

// New creates a new webview in a new window.
func New(debug bool) WebView {
	return webview.New(debug)
}

// WebView carries everything a Binding needs.
var _ Window = WebView(nil)
