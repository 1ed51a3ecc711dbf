package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	direct := SenderFunc(func(string) error { return nil })
	legacy := SenderFunc(func(string) error { return errors.New("legacy") })

	t.Run("direct wins over legacy", func(t *testing.T) {
		s := Select(direct, legacy)
		assert.NoError(t, s.Send("x"))
	})

	t.Run("legacy used without direct", func(t *testing.T) {
		s := Select(nil, legacy)
		assert.EqualError(t, s.Send("x"), "legacy")
	})

	t.Run("nothing available", func(t *testing.T) {
		assert.Nil(t, Select(nil, nil))
	})
}

func TestSwappable(t *testing.T) {
	var s Swappable
	assert.ErrorIs(t, s.Send("x"), ErrUnavailable)

	var got []string
	s.Set(SenderFunc(func(text string) error {
		got = append(got, text)
		return nil
	}))
	require.NoError(t, s.Send("hello"))
	assert.Equal(t, []string{"hello"}, got)

	s.Set(nil)
	assert.ErrorIs(t, s.Send("x"), ErrUnavailable)
}

func TestPipe(t *testing.T) {
	a, b := Pipe()

	assert.ErrorIs(t, a.Send("x"), ErrUnavailable)

	var atB, atA []string
	b.Attach(ReceiverFunc(func(text string) { atB = append(atB, text) }))
	a.Attach(ReceiverFunc(func(text string) { atA = append(atA, text) }))

	require.NoError(t, a.Send("ping"))
	require.NoError(t, b.Send("pong"))
	assert.Equal(t, []string{"ping"}, atB)
	assert.Equal(t, []string{"pong"}, atA)

	b.Detach()
	assert.ErrorIs(t, a.Send("x"), ErrUnavailable)
}
