package loop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop(t *testing.T) {
	t.Run("runs tasks in posting order", func(t *testing.T) {
		l := New(nil)
		defer l.Close()

		var got []int
		for i := 0; i < 100; i++ {
			i := i
			require.True(t, l.Post(func() { got = append(got, i) }))
		}
		require.True(t, l.Sync())

		require.Len(t, got, 100)
		for i, v := range got {
			assert.Equal(t, i, v)
		}
	})

	t.Run("post from a task runs on a later turn", func(t *testing.T) {
		l := New(nil)
		defer l.Close()

		var order []string
		done := make(chan struct{})
		l.Post(func() {
			l.Post(func() {
				order = append(order, "inner")
				close(done)
			})
			order = append(order, "outer")
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("inner task never ran")
		}
		assert.Equal(t, []string{"outer", "inner"}, order)
	})

	t.Run("panicking task does not stop the loop", func(t *testing.T) {
		l := New(nil)
		defer l.Close()

		ran := false
		l.Post(func() { panic("boom") })
		l.Post(func() { ran = true })
		require.True(t, l.Sync())
		assert.True(t, ran)
	})

	t.Run("post after close is rejected", func(t *testing.T) {
		l := New(nil)
		l.Close()

		assert.False(t, l.Post(func() {}))
		assert.False(t, l.Sync())

		select {
		case <-l.Done():
		case <-time.After(time.Second):
			t.Fatal("loop goroutine did not exit")
		}
	})

	t.Run("concurrent posters are serialized", func(t *testing.T) {
		l := New(nil)
		defer l.Close()

		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					l.Post(func() { counter++ })
				}
			}()
		}
		wg.Wait()
		require.True(t, l.Sync())
		assert.Equal(t, 400, counter)
	})
}
