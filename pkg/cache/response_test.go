package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepwagner/madison/pkg/cache"
)

func TestResponseCache(t *testing.T) {
	t.Parallel()

	rc, err := cache.NewResponseCache(8)
	require.NoError(t, err)

	var calls int
	compute := func(v string) func() []byte {
		return func() []byte {
			calls++
			return []byte(v)
		}
	}
	key := cache.Namespace("text").Key("foo", "")

	assert.Equal(t, []byte("one"), rc.Get(1, key, compute("one")))
	assert.Equal(t, []byte("one"), rc.Get(1, key, compute("ignored")))
	assert.Equal(t, 1, calls)

	// A new generation discards everything computed before it.
	assert.Equal(t, []byte("two"), rc.Get(2, key, compute("two")))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, rc.Len())

	hits, misses := rc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestResponseCache_NilNotStored(t *testing.T) {
	t.Parallel()

	rc, err := cache.NewResponseCache(8)
	require.NoError(t, err)
	key := cache.Namespace("html").Key("", "foo")

	assert.Nil(t, rc.Get(1, key, func() []byte { return nil }))
	assert.Equal(t, 0, rc.Len())
	assert.Equal(t, []byte("page"), rc.Get(1, key, func() []byte { return []byte("page") }))
	assert.Equal(t, 1, rc.Len())
}

func TestResponseCache_Bounded(t *testing.T) {
	t.Parallel()

	rc, err := cache.NewResponseCache(2)
	require.NoError(t, err)
	for _, pkg := range []string{"a", "b", "c"} {
		rc.Get(1, cache.Namespace("text").Key(pkg), func() []byte { return []byte(pkg) })
	}
	assert.Equal(t, 2, rc.Len())
}

func TestResponseCache_Concurrent(t *testing.T) {
	t.Parallel()

	rc, err := cache.NewResponseCache(0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := rc.Get(7, cache.Namespace("html").Key("foo"), func() []byte { return []byte("rendered") })
			assert.Equal(t, []byte("rendered"), v)
		}()
	}
	wg.Wait()

	hits, misses := rc.Stats()
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, uint64(15), hits)
}
