package overview

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abdul-hamid-achik/masthead/internal/cms"
	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/query"
)

// Controller owns the state of one page for its lifetime.
//
// Section results are fetched once by Mount. Every search query change
// issues a new fetch; earlier fetches are not canceled, and their responses
// are dropped when a newer query has been issued since.
type Controller struct {
	fetcher  cms.Fetcher
	log      zerolog.Logger
	debounce time.Duration

	mu      sync.Mutex
	state   State
	mounted bool
	timer   *time.Timer

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for fetch failures. The caller's fields,
// including its component, are kept.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithDebounce delays search fetches until the query has been quiet for d.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// New creates a Controller for a freshly mounted page.
func New(fetcher cms.Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		log:     zerolog.Nop(),
		state:   NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount issues one fetch per section concurrently. Only the first call has
// any effect.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.mu.Unlock()

	for _, section := range content.All() {
		c.wg.Add(1)
		go func(section content.Section) {
			defer c.wg.Done()
			c.fetchSection(ctx, section)
		}(section)
	}
}

func (c *Controller) fetchSection(ctx context.Context, section content.Section) {
	items, err := c.fetcher.Fetch(ctx, query.BuildSection(section))
	if err != nil {
		c.log.Error().Err(err).Str("section", section.String()).Msg("section fetch failed")
		return
	}

	c.mu.Lock()
	c.state = c.state.SectionResolved(section, items)
	c.mu.Unlock()

	c.log.Debug().Str("section", section.String()).Int("count", len(items)).Msg("section resolved")
}

// SetSearch records a new search query and fetches its results. Setting
// the current query again does nothing.
func (c *Controller) SetSearch(ctx context.Context, q string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if q == c.state.Query {
		return
	}

	var token uint64
	c.state, token = c.state.SearchChanged(q)

	if c.debounce <= 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.fetchSearch(ctx, token, q)
		}()
		return
	}

	// Add before releasing the pending timer so Wait never sees zero in
	// between.
	c.wg.Add(1)
	if c.timer != nil && c.timer.Stop() {
		c.wg.Done()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		defer c.wg.Done()
		c.fetchSearch(ctx, token, q)
	})
}

func (c *Controller) fetchSearch(ctx context.Context, token uint64, q string) {
	items, err := c.fetcher.Fetch(ctx, query.BuildSearch(q))
	if err != nil {
		c.log.Error().Err(err).Str("query", q).Uint64("token", token).Msg("search fetch failed")
		return
	}

	c.mu.Lock()
	next, ok := c.state.SearchResolved(token, items)
	if ok {
		c.state = next
	}
	c.mu.Unlock()

	if !ok {
		c.log.Debug().Str("query", q).Uint64("token", token).Msg("discarding stale search response")
	}
}

// Wait blocks until every issued or scheduled fetch has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Unmount drops a pending debounced search. Fetches already in flight run
// to completion.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil && c.timer.Stop() {
		c.wg.Done()
	}
	c.timer = nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns the current display decision.
func (c *Controller) View() View {
	return c.Snapshot().View()
}
