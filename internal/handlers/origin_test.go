package handlers

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrigin(t *testing.T) {
	assert.Equal(t, "https://app.example", Origin("https://App.Example/index.html?x=1"))
	assert.Equal(t, "http://127.0.0.1:8080", Origin("http://127.0.0.1:8080"))
	assert.Empty(t, Origin(""))
	assert.Empty(t, Origin("not a url"))
}

func TestCheckOrigin(t *testing.T) {
	h := New(nil, nil, nil, slog.Default(), "https://app.example/start", "")

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://127.0.0.1:5173", true},
		{"http://[::1]:3000", true},
		{"http://localhost:3000", true},
		{"https://app.example", true},
		{"https://evil.example", false},
		{"https://app.example.evil.example", false},
		{"null", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/bridge/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, h.checkOrigin(req))
		})
	}
}
