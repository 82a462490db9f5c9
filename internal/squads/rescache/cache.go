// Package rescache is a content-addressed cache for remote binary resources.
//
// Identities are ETag-like strings; a changed ETag is a different identity,
// so entries never change once resident. Lookups and dispatch happen on the
// caller's update path. Fetches run on a cache-owned worker pool whose
// results come back as Completion values that the update path hands to
// Apply; workers never touch the index.
package rescache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tOgg1/squads/internal/logging"
	"github.com/tOgg1/squads/internal/models"
)

const (
	defaultWorkers      = 4
	defaultQueueSize    = 256
	defaultFetchTimeout = 30 * time.Second
	defaultMaxResident  = 1024
	defaultExtension    = ".jpeg"
)

// Cache errors.
var (
	ErrClosed       = errors.New("resource cache closed")
	ErrNoIdentity   = errors.New("resource has no identity")
	ErrEmptyPayload = errors.New("empty payload")
)

// State is the resolution state of an identity.
type State int

const (
	Absent State = iota
	Pending
	Resident
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resident:
		return "resident"
	case Failed:
		return "failed"
	default:
		return "absent"
	}
}

// Resolution is the answer to a lookup. Path is set when Resident, Err when
// Failed.
type Resolution struct {
	Identity string
	State    State
	Path     string
	Err      error
}

// Fetcher retrieves resource bytes.
type Fetcher interface {
	FetchImage(ctx context.Context, req models.ImageRequest) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req models.ImageRequest) ([]byte, error)

// FetchImage implements Fetcher.
func (f FetcherFunc) FetchImage(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	return f(ctx, req)
}

// Manifest records resident payloads outside the cache directory.
type Manifest interface {
	RecordResource(ctx context.Context, entry ManifestEntry) error
}

// ManifestEntry is one persisted payload.
type ManifestEntry struct {
	Identity  string
	Path      string
	Size      int64
	FetchedAt time.Time
}

// Completion is the result of one fetch.
type Completion struct {
	RequestID string
	Identity  string
	Path      string
	Size      int64
	Duration  time.Duration
	Err       error
}

// Options configures a Cache.
type Options struct {
	Dir          string
	Extension    string
	Workers      int
	QueueSize    int
	FetchTimeout time.Duration
	MaxResident  int
	Registerer   prometheus.Registerer
	Manifest     Manifest
}

type task struct {
	id  string
	req models.ImageRequest
}

// Cache resolves identities to resident payload paths.
type Cache struct {
	dir          string
	ext          string
	workers      int
	fetchTimeout time.Duration
	fetcher      Fetcher
	manifest     Manifest
	metrics      *Metrics
	logger       zerolog.Logger

	mu       sync.Mutex
	resident *lru.Cache[string, string]
	pending  map[string]string // identity -> request id
	failed   map[string]error
	closed   bool
	started  bool

	requests    chan task
	completions chan Completion
	cancel      context.CancelFunc
	done        chan struct{}
}

// New creates a cache persisting under opts.Dir. Call Start before
// resolving.
func New(fetcher Fetcher, opts Options) (*Cache, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, fmt.Errorf("cache dir required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher required")
	}
	ext := opts.Extension
	if ext == "" {
		ext = defaultExtension
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	maxResident := opts.MaxResident
	if maxResident <= 0 {
		maxResident = defaultMaxResident
	}
	resident, err := lru.New[string, string](maxResident)
	if err != nil {
		return nil, fmt.Errorf("init resident index: %w", err)
	}

	return &Cache{
		dir:          dir,
		ext:          ext,
		workers:      workers,
		fetchTimeout: fetchTimeout,
		fetcher:      fetcher,
		manifest:     opts.Manifest,
		metrics:      NewMetrics(opts.Registerer),
		logger:       logging.Component("rescache"),
		resident:     resident,
		pending:      make(map[string]string),
		failed:       make(map[string]error),
		requests:     make(chan task, queueSize),
		completions:  make(chan Completion, queueSize),
		done:         make(chan struct{}),
	}, nil
}

// Start launches the worker pool. It returns immediately.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.dispatchLoop(ctx)
}

// Close stops accepting work, cancels in-flight fetches and waits for the
// workers to exit. The completions channel is closed afterwards.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	close(c.requests)
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	if started {
		<-c.done
	} else {
		close(c.completions)
	}
	return nil
}

// Completions delivers fetch results. The owner of the update path must
// pass each one to Apply.
func (c *Cache) Completions() <-chan Completion {
	return c.completions
}

// Metrics exposes the cache counters.
func (c *Cache) Metrics() *Metrics {
	return c.metrics
}

// Dir returns the payload directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Lookup reports the state of identity without dispatching anything. A
// payload already on disk is adopted as resident.
func (c *Cache) Lookup(identity string) Resolution {
	if identity == "" {
		return Resolution{State: Failed, Err: ErrNoIdentity}
	}

	c.mu.Lock()
	if path, ok := c.resident.Get(identity); ok {
		c.mu.Unlock()
		return Resolution{Identity: identity, State: Resident, Path: path}
	}
	if _, ok := c.pending[identity]; ok {
		c.mu.Unlock()
		return Resolution{Identity: identity, State: Pending}
	}
	if err, ok := c.failed[identity]; ok {
		c.mu.Unlock()
		return Resolution{Identity: identity, State: Failed, Err: err}
	}
	c.mu.Unlock()

	path, ok := c.residentOnDisk(identity)
	if !ok {
		return Resolution{Identity: identity, State: Absent}
	}
	c.mu.Lock()
	c.resident.Add(identity, path)
	c.mu.Unlock()
	return Resolution{Identity: identity, State: Resident, Path: path}
}

// Resolve looks up req.Identity and dispatches a fetch when it is absent.
// It never blocks on the fetch. Failed identities stay failed until Fetch
// is called for them.
func (c *Cache) Resolve(req models.ImageRequest) Resolution {
	res := c.Lookup(req.Identity)
	if res.State == Pending {
		c.metrics.Deduplicated.Inc()
	}
	if res.State != Absent {
		return res
	}
	return c.dispatch(req)
}

// Fetch is the explicit fetch intent: like Resolve, but a failed identity
// is retried.
func (c *Cache) Fetch(req models.ImageRequest) Resolution {
	res := c.Lookup(req.Identity)
	if res.State == Pending {
		c.metrics.Deduplicated.Inc()
	}
	if res.State != Absent && res.State != Failed {
		return res
	}
	return c.dispatch(req)
}

func (c *Cache) dispatch(req models.ImageRequest) Resolution {
	identity := req.Identity

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Resolution{Identity: identity, State: Absent, Err: ErrClosed}
	}
	if path, ok := c.resident.Peek(identity); ok {
		return Resolution{Identity: identity, State: Resident, Path: path}
	}
	if _, ok := c.pending[identity]; ok {
		c.metrics.Deduplicated.Inc()
		return Resolution{Identity: identity, State: Pending}
	}

	t := task{id: uuid.NewString(), req: req}
	select {
	case c.requests <- t:
	default:
		c.metrics.Dropped.Inc()
		c.logger.Warn().Str("identity", identity).Msg("fetch queue full, dropping request")
		return Resolution{Identity: identity, State: Absent}
	}
	delete(c.failed, identity)
	c.pending[identity] = t.id
	c.metrics.Dispatched.Inc()
	c.metrics.Inflight.Inc()
	return Resolution{Identity: identity, State: Pending}
}

// Apply folds a completion into the index and returns the new resolution.
// Results for identities nobody is waiting on any more are still kept.
func (c *Cache) Apply(comp Completion) Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.pending[comp.Identity]; ok && id == comp.RequestID {
		delete(c.pending, comp.Identity)
		c.metrics.Inflight.Dec()
	}
	if comp.Err != nil {
		if path, ok := c.resident.Peek(comp.Identity); ok {
			return Resolution{Identity: comp.Identity, State: Resident, Path: path}
		}
		c.failed[comp.Identity] = comp.Err
		return Resolution{Identity: comp.Identity, State: Failed, Err: comp.Err}
	}
	delete(c.failed, comp.Identity)
	c.resident.Add(comp.Identity, comp.Path)
	return Resolution{Identity: comp.Identity, State: Resident, Path: comp.Path}
}

// Await applies completions until identity is no longer pending. It is for
// callers that own the cache outright, such as the CLI; an interactive
// update loop consumes Completions instead.
func (c *Cache) Await(ctx context.Context, identity string) (Resolution, error) {
	for {
		res := c.Lookup(identity)
		if res.State != Pending {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case comp, ok := <-c.completions:
			if !ok {
				return c.Lookup(identity), ErrClosed
			}
			c.Apply(comp)
		}
	}
}

func (c *Cache) dispatchLoop(ctx context.Context) {
	defer close(c.done)
	defer close(c.completions)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for t := range c.requests {
		g.Go(func() error {
			c.run(gctx, t)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Cache) run(ctx context.Context, t task) {
	start := time.Now()
	log := c.logger.With().Str("identity", t.req.Identity).Str("request_id", t.id).Logger()
	comp := Completion{RequestID: t.id, Identity: t.req.Identity}

	payload, err := c.fetch(ctx, t.req)
	if err == nil {
		comp.Path, err = c.persist(t.req.Identity, payload)
	}
	comp.Duration = time.Since(start)
	if err != nil {
		comp.Err = err
		c.metrics.Fetches.WithLabelValues("error").Inc()
		log.Debug().Err(err).Dur("took", comp.Duration).Msg("fetch failed")
	} else {
		comp.Size = int64(len(payload))
		c.metrics.Fetches.WithLabelValues("ok").Inc()
		c.metrics.Bytes.Add(float64(comp.Size))
		log.Debug().Int64("bytes", comp.Size).Dur("took", comp.Duration).Msg("fetched")
		c.record(ctx, comp)
	}

	select {
	case c.completions <- comp:
	case <-ctx.Done():
	}
}

func (c *Cache) fetch(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	payload, err := c.fetcher.FetchImage(fetchCtx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Identity, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", req.Identity, ErrEmptyPayload)
	}
	return payload, nil
}

func (c *Cache) record(ctx context.Context, comp Completion) {
	if c.manifest == nil {
		return
	}
	err := c.manifest.RecordResource(ctx, ManifestEntry{
		Identity:  comp.Identity,
		Path:      comp.Path,
		Size:      comp.Size,
		FetchedAt: time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("identity", comp.Identity).Msg("record manifest entry")
	}
}
