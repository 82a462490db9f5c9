package rescache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tOgg1/squads/internal/models"
)

type countingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	payload []byte
	errs    []error
}

func (f *countingFetcher) FetchImage(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	n := int(f.calls.Add(1))
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= len(f.errs) && f.errs[n-1] != nil {
		return nil, f.errs[n-1]
	}
	return f.payload, nil
}

func newTestCache(t *testing.T, fetcher Fetcher, opts Options) *Cache {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = filepath.Join(t.TempDir(), "image-cache")
	}
	cache, err := New(fetcher, opts)
	require.NoError(t, err)
	return cache
}

func awaitResolution(t *testing.T, cache *Cache, identity string) Resolution {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := cache.Await(ctx, identity)
	require.NoError(t, err)
	return res
}

func TestCache_ResolvePendingThenResident(t *testing.T) {
	payload := []byte("\xff\xd8jpeg-bytes")
	fetcher := &countingFetcher{payload: payload}
	cache := newTestCache(t, fetcher, Options{})
	cache.Start(context.Background())
	t.Cleanup(func() { _ = cache.Close() })

	req := models.ImageRequest{Identity: "etag-7"}
	require.Equal(t, Pending, cache.Resolve(req).State)

	res := awaitResolution(t, cache, "etag-7")
	require.Equal(t, Resident, res.State)

	again := cache.Resolve(req)
	require.Equal(t, Resident, again.State)
	require.Equal(t, filepath.Join(cache.Dir(), "etag-7.jpeg"), again.Path)

	got, err := os.ReadFile(again.Path)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.EqualValues(t, 1, fetcher.calls.Load())
}

func TestCache_DuplicateResolveCollapsesIntoOneFetch(t *testing.T) {
	fetcher := &countingFetcher{payload: []byte("png"), release: make(chan struct{})}
	cache := newTestCache(t, fetcher, Options{Workers: 4})
	cache.Start(context.Background())
	t.Cleanup(func() { _ = cache.Close() })

	req := models.ImageRequest{Identity: "etag-dup"}
	require.Equal(t, Pending, cache.Resolve(req).State)
	require.Equal(t, Pending, cache.Resolve(req).State)
	require.Equal(t, Pending, cache.Fetch(req).State)

	close(fetcher.release)
	require.Equal(t, Resident, awaitResolution(t, cache, "etag-dup").State)

	require.EqualValues(t, 1, fetcher.calls.Load())
	require.Equal(t, 1.0, testutil.ToFloat64(cache.Metrics().Dispatched))
	require.Equal(t, 2.0, testutil.ToFloat64(cache.Metrics().Deduplicated))
	require.Equal(t, 0.0, testutil.ToFloat64(cache.Metrics().Inflight))
}

func TestCache_FailureIsStickyUntilFetch(t *testing.T) {
	fetcher := &countingFetcher{payload: []byte("ok"), errs: []error{errors.New("404 not found")}}
	cache := newTestCache(t, fetcher, Options{})
	cache.Start(context.Background())
	t.Cleanup(func() { _ = cache.Close() })

	req := models.ImageRequest{Identity: "etag-missing"}
	cache.Resolve(req)
	res := awaitResolution(t, cache, req.Identity)
	require.Equal(t, Failed, res.State)
	require.ErrorContains(t, res.Err, "404")

	require.Equal(t, Failed, cache.Resolve(req).State, "resolve does not retry")
	require.EqualValues(t, 1, fetcher.calls.Load())

	require.Equal(t, Pending, cache.Fetch(req).State)
	require.Equal(t, Resident, awaitResolution(t, cache, req.Identity).State)
	require.EqualValues(t, 2, fetcher.calls.Load())
	require.Equal(t, 1.0, testutil.ToFloat64(cache.Metrics().Fetches.WithLabelValues("error")))
}

func TestCache_EmptyPayloadFails(t *testing.T) {
	cache := newTestCache(t, &countingFetcher{}, Options{})
	cache.Start(context.Background())
	t.Cleanup(func() { _ = cache.Close() })

	cache.Resolve(models.ImageRequest{Identity: "etag-empty"})
	res := awaitResolution(t, cache, "etag-empty")
	require.Equal(t, Failed, res.State)
	require.ErrorIs(t, res.Err, ErrEmptyPayload)
}

func TestCache_AdoptsPayloadAlreadyOnDisk(t *testing.T) {
	fetcher := &countingFetcher{payload: []byte("x")}
	cache := newTestCache(t, fetcher, Options{})
	require.NoError(t, os.MkdirAll(cache.Dir(), 0o755))
	require.NoError(t, os.WriteFile(cache.PathFor("General"), []byte("cached"), 0o644))

	res := cache.Resolve(models.ImageRequest{Identity: "General"})
	require.Equal(t, Resident, res.State)
	require.Equal(t, cache.PathFor("General"), res.Path)
	require.Zero(t, fetcher.calls.Load())
	require.NoError(t, cache.Close())
}

func TestCache_MissingDirectoryIsAMiss(t *testing.T) {
	cache := newTestCache(t, &countingFetcher{}, Options{Dir: filepath.Join(t.TempDir(), "does", "not", "exist")})
	require.Equal(t, Absent, cache.Lookup("etag-1").State)

	entries, err := cache.Entries()
	require.NoError(t, err)
	require.Empty(t, entries)
	require.NoError(t, cache.Close())
}

func TestCache_EmptyIdentity(t *testing.T) {
	cache := newTestCache(t, &countingFetcher{}, Options{})
	res := cache.Resolve(models.ImageRequest{})
	require.Equal(t, Failed, res.State)
	require.ErrorIs(t, res.Err, ErrNoIdentity)
	require.NoError(t, cache.Close())
}

func TestCache_FullQueueDropsWithoutBlocking(t *testing.T) {
	fetcher := &countingFetcher{payload: []byte("x")}
	cache := newTestCache(t, fetcher, Options{QueueSize: 1})

	require.Equal(t, Pending, cache.Resolve(models.ImageRequest{Identity: "a"}).State)
	require.Equal(t, Absent, cache.Resolve(models.ImageRequest{Identity: "b"}).State)
	require.Equal(t, 1.0, testutil.ToFloat64(cache.Metrics().Dropped))
	require.Equal(t, Absent, cache.Lookup("b").State, "dropped identity can be resolved again")
	require.NoError(t, cache.Close())
}

func TestCache_LateCompletionIsKept(t *testing.T) {
	cache := newTestCache(t, &countingFetcher{}, Options{})
	res := cache.Apply(Completion{RequestID: "stale", Identity: "etag-9", Path: cache.PathFor("etag-9")})
	require.Equal(t, Resident, res.State)
	require.Equal(t, Resident, cache.Lookup("etag-9").State)
	require.NoError(t, cache.Close())
}

func TestCache_CloseStopsWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := &countingFetcher{payload: []byte("x"), release: make(chan struct{})}
	cache := newTestCache(t, fetcher, Options{Workers: 2})
	cache.Start(context.Background())
	cache.Resolve(models.ImageRequest{Identity: "blocked-1"})
	cache.Resolve(models.ImageRequest{Identity: "blocked-2"})

	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close())

	res := cache.Resolve(models.ImageRequest{Identity: "after-close"})
	require.ErrorIs(t, res.Err, ErrClosed)

	for range cache.Completions() {
	}
}

func TestCache_EntriesNewestFirst(t *testing.T) {
	cache := newTestCache(t, &countingFetcher{}, Options{})
	require.NoError(t, os.MkdirAll(cache.Dir(), 0o755))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.WriteFile(cache.PathFor("old"), []byte("1"), 0o644))
	require.NoError(t, os.Chtimes(cache.PathFor("old"), old, old))
	require.NoError(t, os.WriteFile(cache.PathFor("new"), []byte("22"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cache.Dir(), ".fetch-123"), []byte("tmp"), 0o644))

	entries, err := cache.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "new", entries[0].Name)
	require.EqualValues(t, 2, entries[0].Size)
	require.Equal(t, "old", entries[1].Name)
	require.NoError(t, cache.Close())
}
