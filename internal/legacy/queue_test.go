package legacy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arko-chat/hostbridge/internal/bridge"
	"github.com/arko-chat/hostbridge/internal/transport"
)

func TestQueue(t *testing.T) {
	t.Run("send signals and fetch drains in order", func(t *testing.T) {
		var signals []string
		q := NewQueue(func(url string) { signals = append(signals, url) }, nil)

		require.NoError(t, q.Send(`{"handlerName":"a"}`))
		require.NoError(t, q.Send(`{"handlerName":"b"}`))
		assert.Equal(t, 2, q.Len())
		assert.Equal(t, []string{"flutter://__QUEUE_MESSAGE__/", "flutter://__QUEUE_MESSAGE__/"}, signals)

		assert.JSONEq(t, `[{"handlerName":"a"},{"handlerName":"b"}]`, q.Fetch())
		assert.Equal(t, 0, q.Len())
		assert.Equal(t, "[]", q.Fetch())
	})

	t.Run("rejects non JSON text", func(t *testing.T) {
		q := NewQueue(nil, nil)
		assert.Error(t, q.Send("nope"))
		assert.Equal(t, 0, q.Len())
	})

	t.Run("split round trips fetched text", func(t *testing.T) {
		texts, err := Split(`[{"responseId":"cb_1_1"},{"handlerName":"x","data":[1]}]`)
		require.NoError(t, err)
		require.Len(t, texts, 2)
		assert.JSONEq(t, `{"responseId":"cb_1_1"}`, texts[0])

		_, err = Split(`{}`)
		assert.Error(t, err)
	})

	t.Run("drain delivers each envelope", func(t *testing.T) {
		q := NewQueue(nil, nil)
		require.NoError(t, q.Send(`{"handlerName":"a"}`))
		require.NoError(t, q.Send(`{"handlerName":"b"}`))

		var got []string
		n := q.Drain(transport.ReceiverFunc(func(text string) { got = append(got, text) }))
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{`{"handlerName":"a"}`, `{"handlerName":"b"}`}, got)
	})
}

func TestSessionRoundTrip(t *testing.T) {
	// page side polls the host's queue; host side polls the page's queue
	page := NewSession(nil, nil)
	host := NewSession(nil, nil)
	t.Cleanup(page.Close)
	t.Cleanup(host.Close)

	host.Bridge.RegisterHandler("getH5Data", func(_ context.Context, _ json.RawMessage, reply bridge.ReplyFunc) {
		reply(map[string]int{"n": 7})
	})
	require.NoError(t, page.Bridge.Init(nil))
	require.NoError(t, host.Bridge.Init(nil))

	got := make(chan json.RawMessage, 1)
	require.NoError(t, page.Bridge.CallHandler("getH5Data", nil, func(data json.RawMessage) { got <- data }))

	assert.Equal(t, 1, page.Queue.Drain(host.Bridge))
	require.Eventually(t, func() bool { return host.Queue.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, host.Queue.Drain(page.Bridge))

	select {
	case data := <-got:
		assert.JSONEq(t, `{"n":7}`, string(data))
	case <-time.After(time.Second):
		t.Fatal("no response")
	}
}

func TestPageScript(t *testing.T) {
	script := PageScript(`http://127.0.0.1:4000/bridge/legacy/deliver?token=a"b`)

	assert.Contains(t, script, "window."+PostFunc+" = function (text)")
	assert.Contains(t, script, `var endpoint = "http://127.0.0.1:4000/bridge/legacy/deliver?token=a\"b";`)
	assert.Contains(t, script, `mode: "no-cors"`)
}
