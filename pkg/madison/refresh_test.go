package madison_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepwagner/madison/pkg/cache"
	"github.com/thepwagner/madison/pkg/madison"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []madison.BuildEvent
}

func (r *recordedEvents) hook(ev madison.BuildEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordedEvents) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestRefresher_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	listings := newFakeSource(binaryListing("focal", "main", "amd64", bin("foo", "1.0")))
	store := madison.NewStore()
	var events recordedEvents
	r := madison.NewRefresher(listings, store, madison.WithBuildHook(events.hook))

	// The first refresh builds even though nothing changed upstream.
	require.NoError(t, r.Refresh(ctx))
	assert.True(t, store.Ready())
	assert.Equal(t, uint64(1), store.Load().Generation)
	assert.Equal(t, 1, events.len())

	// No change: the snapshot is untouched.
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, uint64(1), store.Load().Generation)
	assert.Equal(t, 1, events.len())

	listings.set(binaryListing("focal", "main", "amd64", bin("foo", "2.0")))
	require.NoError(t, r.Refresh(ctx))
	snap := store.Load()
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, []madison.OutputRecord{
		{Package: "foo", Version: "2.0", Key: "focal", Architectures: "source, amd64"},
	}, madison.Query(snap.Mapping, []string{"foo"}, ""))
}

func TestRefresher_FailureKeepsSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	listings := newFakeSource(binaryListing("focal", "main", "amd64", bin("foo", "1.0")))
	store := madison.NewStore()
	var events recordedEvents
	r := madison.NewRefresher(listings, store, madison.WithBuildHook(events.hook))
	require.NoError(t, r.Refresh(ctx))

	boom := errors.New("boom")
	broken := binaryListing("focal", "main", "amd64")
	broken.openErr = boom
	listings.set(broken)

	err := r.Refresh(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), store.Load().Generation)
	assert.Len(t, madison.Query(store.Load().Mapping, []string{"foo"}, ""), 1)
	require.Equal(t, 2, events.len())
	assert.ErrorIs(t, events.events[1].Err, boom)

	// The failed build is retried on the next tick even without a new change.
	listings.mu.Lock()
	listings.listings = []fakeListing{binaryListing("focal", "main", "amd64", bin("foo", "3.0"))}
	listings.mu.Unlock()
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, uint64(2), store.Load().Generation)
}

func TestRefresher_UpdateError(t *testing.T) {
	t.Parallel()

	listings := newFakeSource(binaryListing("focal", "main", "amd64", bin("foo", "1.0")))
	listings.updateErr = errors.New("network down")
	store := madison.NewStore()
	r := madison.NewRefresher(listings, store)

	assert.Error(t, r.Refresh(context.Background()))
	assert.False(t, store.Ready())
}

func TestRefresher_Run(t *testing.T) {
	t.Parallel()

	listings := newFakeSource(binaryListing("focal", "main", "amd64", bin("foo", "1.0")))
	store := madison.NewStore()
	r := madison.NewRefresher(listings, store, madison.WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, store.Ready, time.Second, time.Millisecond)
	listings.set(binaryListing("focal", "main", "amd64", bin("foo", "2.0")))
	require.Eventually(t, func() bool { return store.Load().Generation == 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestRefresher_ResponseCacheInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	listings := newFakeSource(binaryListing("focal", "main", "amd64", bin("foo", "1.0")))
	store := madison.NewStore()
	r := madison.NewRefresher(listings, store)
	require.NoError(t, r.Refresh(ctx))

	responses, err := cache.NewResponseCache(16)
	require.NoError(t, err)
	key := cache.Namespace("text").Key("foo", "")
	render := func() string {
		snap := store.Load()
		return string(responses.Get(snap.Generation, key, func() []byte {
			return []byte(madison.RenderTable(madison.Query(snap.Mapping, []string{"foo"}, "")))
		}))
	}

	assert.Equal(t, "foo | 1.0 | focal | source, amd64\n", render())

	// A no-change refresh keeps the cached response.
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, "foo | 1.0 | focal | source, amd64\n", render())
	hits, misses := responses.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	// A mapping change invalidates it.
	listings.set(binaryListing("focal", "main", "amd64", bin("foo", "2.0")))
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, "foo | 2.0 | focal | source, amd64\n", render())
	_, misses = responses.Stats()
	assert.Equal(t, uint64(2), misses)
}
