package cache

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/singleflight"
)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Memo caches the result of fn per key. Concurrent misses for the same key
// share one call. A stale entry is served while a refresh runs in the
// background.
type Memo[T any] struct {
	entries *xsync.Map[string, entry[T]]
	sfg     singleflight.Group
	ttl     time.Duration
}

func NewMemo[T any](ttl time.Duration) *Memo[T] {
	return &Memo[T]{
		entries: xsync.NewMap[string, entry[T]](),
		ttl:     ttl,
	}
}

func (m *Memo[T]) Get(key string, fn func() (T, error)) (T, error) {
	e, ok := m.entries.Load(key)
	if ok {
		if m.ttl > 0 && time.Since(e.fetchedAt) > m.ttl {
			go func() {
				m.sfg.Do(key, func() (any, error) {
					result, err := fn()
					if err != nil {
						return nil, err
					}
					newEntry := entry[T]{value: result, fetchedAt: time.Now()}
					m.entries.Store(key, newEntry)
					return newEntry, nil
				})
			}()
		}
		return e.value, nil
	}

	v, err, _ := m.sfg.Do(key, func() (any, error) {
		if e, ok := m.entries.Load(key); ok {
			return e, nil
		}
		res, err := fn()
		if err != nil {
			return nil, err
		}
		newEntry := entry[T]{value: res, fetchedAt: time.Now()}
		m.entries.Store(key, newEntry)
		return newEntry, nil
	})

	if err != nil {
		var zero T
		return zero, err
	}
	return v.(entry[T]).value, nil
}
