// Package pagination implements an incremental, de-duplicating list loader
// driven by limit/offset page fetches.
package pagination

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/feedbackkit/internal/logging"
)

// DefaultLoadMoreThreshold is how close to the end of the list a row must
// be before the next page is requested.
const DefaultLoadMoreThreshold = 2

// Identifiable items are de-duplicated and updated by ItemID.
type Identifiable interface {
	ItemID() string
}

// Page is one fetched page. Total is the server's count of all items when
// it reports one.
type Page[Item any] struct {
	Items []Item
	Total *int
}

// PageFetcher loads limit items starting at offset for the given context
// key (for example a roadmap tab).
type PageFetcher[Item any, Key any] func(ctx context.Context, limit, offset int, key Key) (Page[Item], error)

// Data seeds a paginator, typically from a first response fetched
// synchronously elsewhere.
type Data[Item any] struct {
	Items            []Item
	PlaceholderItems []Item
	PageSize         int
	KnownCount       *int
}

// State is an immutable snapshot. Version grows with every mutation so
// subscribers can drop snapshots that arrive out of order.
type State[Item any, Key any] struct {
	Version uint64

	Items            []Item
	PlaceholderItems []Item
	// VisibleItems are the placeholders while ShowingPlaceholders, the
	// loaded items otherwise.
	VisibleItems []Item

	PageSize          int
	LoadMoreThreshold int
	KnownCount        *int

	IsLoading    bool
	IsRefreshing bool
	Err          error
	Context      Key
	Exhausted    bool

	// ShowingPlaceholders is true exactly when no items are loaded, a load
	// is in flight and there is no error.
	ShowingPlaceholders bool
}

type Option func(*options)

type options struct {
	threshold int
	log       logging.Logger
}

func WithLoadMoreThreshold(n int) Option {
	return func(o *options) { o.threshold = n }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// Paginator is safe for concurrent use. At most one fetch is in flight;
// calls that would start a second one return false without fetching.
type Paginator[Item Identifiable, Key comparable] struct {
	fetch     PageFetcher[Item, Key]
	pageSize  int
	threshold int
	log       logging.Logger

	mu           sync.Mutex
	version      uint64
	items        []Item
	placeholders []Item
	knownCount   *int
	loading      bool
	refreshing   bool
	err          error
	key          Key
	exhausted    bool
	generation   uint64
	cancel       context.CancelFunc

	subMu       sync.Mutex
	subscribers map[int]func(State[Item, Key])
	nextSub     int
}

// New builds a paginator for key, seeded with data. The load-more
// threshold defaults to DefaultLoadMoreThreshold, capped below the page
// size.
func New[Item Identifiable, Key comparable](key Key, data Data[Item], fetch PageFetcher[Item, Key], opts ...Option) (*Paginator[Item, Key], error) {
	if data.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", data.PageSize)
	}
	if fetch == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}

	o := options{threshold: -1, log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	threshold := o.threshold
	if threshold < 0 {
		threshold = min(DefaultLoadMoreThreshold, data.PageSize-1)
	}
	if threshold >= data.PageSize {
		return nil, fmt.Errorf("load more threshold %d must be less than page size %d", threshold, data.PageSize)
	}

	p := &Paginator[Item, Key]{
		fetch:        fetch,
		pageSize:     data.PageSize,
		threshold:    threshold,
		log:          o.log,
		key:          key,
		placeholders: clone(data.PlaceholderItems),
		knownCount:   cloneInt(data.KnownCount),
		subscribers:  map[int]func(State[Item, Key]){},
	}
	p.items = p.truncate(dedupe(nil, data.Items))
	return p, nil
}

// LoadInitial fetches the first page unless items are already loaded or a
// fetch is in flight.
func (p *Paginator[Item, Key]) LoadInitial(ctx context.Context) bool {
	p.mu.Lock()
	if len(p.items) > 0 || p.loading {
		p.mu.Unlock()
		return false
	}
	return p.fetchLocked(ctx, false)
}

// LoadMore fetches the next page when the row at index after is within the
// threshold of the end of the list. It returns whether a fetch ran.
func (p *Paginator[Item, Key]) LoadMore(ctx context.Context, after int) bool {
	p.mu.Lock()
	switch {
	case p.loading, p.exhausted, p.reachedKnownCountLocked():
		p.mu.Unlock()
		return false
	case after < len(p.items)-p.threshold:
		p.mu.Unlock()
		return false
	}
	return p.fetchLocked(ctx, false)
}

// Refresh reloads from offset zero. Loaded items stay visible until the new
// first page replaces them; on failure they are kept and Err is set.
func (p *Paginator[Item, Key]) Refresh(ctx context.Context) bool {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		p.log.Debug(ctx, "refresh skipped, fetch in flight")
		return false
	}
	return p.fetchLocked(ctx, true)
}

// SetContext switches to key. When it differs from the current key the
// in-flight fetch is cancelled and its result discarded, the state is reset
// and the first page for key is loaded.
func (p *Paginator[Item, Key]) SetContext(ctx context.Context, key Key) bool {
	p.mu.Lock()
	if key == p.key {
		p.mu.Unlock()
		return false
	}

	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	p.key = key
	p.items = nil
	p.knownCount = nil
	p.loading = false
	p.refreshing = false
	p.err = nil
	p.exhausted = false

	p.log.Debug(ctx, "pagination context changed", "context", fmt.Sprint(key))
	return p.fetchLocked(ctx, false)
}

// UpdateItem replaces the loaded item with the same id. It reports false
// when no such item is loaded.
func (p *Paginator[Item, Key]) UpdateItem(item Item) bool {
	p.mu.Lock()
	for i := range p.items {
		if p.items[i].ItemID() == item.ItemID() {
			p.items = clone(p.items)
			p.items[i] = item
			p.version++
			st := p.stateLocked()
			p.mu.Unlock()
			p.notify(st)
			return true
		}
	}
	p.mu.Unlock()

	p.log.Warn(context.Background(), "updated item not found in paginator", "item_id", item.ItemID())
	return false
}

// CurrentData snapshots the loaded items for seeding another paginator.
func (p *Paginator[Item, Key]) CurrentData() Data[Item] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Data[Item]{
		Items:            clone(p.items),
		PlaceholderItems: clone(p.placeholders),
		PageSize:         p.pageSize,
		KnownCount:       cloneInt(p.knownCount),
	}
}

func (p *Paginator[Item, Key]) State() State[Item, Key] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

// Subscribe registers fn to receive a snapshot after every mutation. fn runs
// on the goroutine that made the change, outside the paginator lock, so it
// may call back into the paginator.
func (p *Paginator[Item, Key]) Subscribe(fn func(State[Item, Key])) (cancel func()) {
	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subscribers[id] = fn
	p.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subscribers, id)
			p.subMu.Unlock()
		})
	}
}

// fetchLocked is entered with mu held and returns with it released.
func (p *Paginator[Item, Key]) fetchLocked(ctx context.Context, refresh bool) bool {
	offset := len(p.items)
	if refresh {
		offset = 0
	}
	limit := p.pageSize
	key := p.key
	gen := p.generation

	fctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.loading = true
	p.refreshing = refresh
	p.version++
	st := p.stateLocked()
	p.mu.Unlock()

	p.notify(st)
	p.log.Debug(ctx, "fetching page", "limit", limit, "offset", offset, "refresh", refresh)

	page, err := p.fetch(fctx, limit, offset, key)
	cancel()

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.log.Debug(ctx, "discarding stale page", "offset", offset)
		return true
	}

	p.cancel = nil
	p.loading = false
	p.refreshing = false

	if err != nil {
		p.err = err
		p.log.Error(ctx, "page fetch failed", "offset", offset, "error", err)
	} else {
		p.err = nil
		p.applyLocked(page, refresh)
	}

	p.version++
	st = p.stateLocked()
	p.mu.Unlock()

	p.notify(st)
	return true
}

func (p *Paginator[Item, Key]) applyLocked(page Page[Item], refresh bool) {
	if refresh {
		p.knownCount = cloneInt(page.Total)
		p.items = p.truncate(dedupe(nil, page.Items))
	} else {
		if page.Total != nil {
			p.knownCount = cloneInt(page.Total)
		}
		p.items = p.truncate(dedupe(p.items, page.Items))
	}
	p.exhausted = len(page.Items) < p.pageSize
}

func (p *Paginator[Item, Key]) reachedKnownCountLocked() bool {
	return p.knownCount != nil && len(p.items) >= *p.knownCount
}

func (p *Paginator[Item, Key]) truncate(items []Item) []Item {
	if p.knownCount != nil && len(items) > *p.knownCount {
		return items[:max(*p.knownCount, 0)]
	}
	return items
}

func (p *Paginator[Item, Key]) stateLocked() State[Item, Key] {
	showing := len(p.items) == 0 && p.loading && p.err == nil
	st := State[Item, Key]{
		Version:             p.version,
		Items:               clone(p.items),
		PlaceholderItems:    clone(p.placeholders),
		PageSize:            p.pageSize,
		LoadMoreThreshold:   p.threshold,
		KnownCount:          cloneInt(p.knownCount),
		IsLoading:           p.loading,
		IsRefreshing:        p.refreshing,
		Err:                 p.err,
		Context:             p.key,
		Exhausted:           p.exhausted,
		ShowingPlaceholders: showing,
	}
	if showing {
		st.VisibleItems = st.PlaceholderItems
	} else {
		st.VisibleItems = st.Items
	}
	return st
}

func (p *Paginator[Item, Key]) notify(st State[Item, Key]) {
	p.subMu.Lock()
	subs := make([]func(State[Item, Key]), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	p.subMu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// dedupe appends the items of next whose ids are not already present.
func dedupe[Item Identifiable](existing, next []Item) []Item {
	seen := make(map[string]struct{}, len(existing)+len(next))
	out := make([]Item, 0, len(existing)+len(next))
	for _, it := range existing {
		seen[it.ItemID()] = struct{}{}
		out = append(out, it)
	}
	for _, it := range next {
		if _, ok := seen[it.ItemID()]; ok {
			continue
		}
		seen[it.ItemID()] = struct{}{}
		out = append(out, it)
	}
	return out
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
