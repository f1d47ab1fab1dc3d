package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    string
	Title string
}

func (r row) ItemID() string { return r.ID }

func rows(from, to int) []row {
	out := make([]row, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, row{ID: fmt.Sprintf("r%d", i)})
	}
	return out
}

func ids(items []row) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func intPtr(n int) *int { return &n }

type call struct {
	limit, offset int
	key           string
}

// fakeBackend serves a fixed number of rows per key.
type fakeBackend struct {
	mu      sync.Mutex
	total   map[string]int
	calls   []call
	fail    error
	noTotal bool
}

func (b *fakeBackend) fetch(ctx context.Context, limit, offset int, key string) (Page[row], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call{limit, offset, key})
	if b.fail != nil {
		return Page[row]{}, b.fail
	}
	total := b.total[key]
	end := min(offset+limit, total)
	var items []row
	if offset < end {
		items = rows(offset, end)
	}
	p := Page[row]{Items: items}
	if !b.noTotal {
		p.Total = intPtr(total)
	}
	return p, nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func newPaginator(t *testing.T, b *fakeBackend, pageSize int, opts ...Option) *Paginator[row, string] {
	t.Helper()
	p, err := New("", Data[row]{PageSize: pageSize, PlaceholderItems: rows(100, 103)}, b.fetch, opts...)
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	fetch := (&fakeBackend{}).fetch

	_, err := New("", Data[row]{PageSize: 0}, fetch)
	require.Error(t, err)

	_, err = New[row, string]("", Data[row]{PageSize: 5}, nil)
	require.Error(t, err)

	_, err = New("", Data[row]{PageSize: 5}, fetch, WithLoadMoreThreshold(5))
	require.Error(t, err, "threshold must be below page size")

	p, err := New("", Data[row]{PageSize: 5}, fetch)
	require.NoError(t, err)
	assert.Equal(t, DefaultLoadMoreThreshold, p.State().LoadMoreThreshold)

	p, err = New("", Data[row]{PageSize: 1}, fetch)
	require.NoError(t, err)
	assert.Equal(t, 0, p.State().LoadMoreThreshold)
}

func TestLoadInitial(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 12}}
	p := newPaginator(t, b, 5)
	ctx := context.Background()

	assert.True(t, p.LoadInitial(ctx))
	assert.False(t, p.LoadInitial(ctx), "items already loaded")

	st := p.State()
	assert.Equal(t, ids(rows(0, 5)), ids(st.Items))
	assert.Equal(t, 12, *st.KnownCount)
	assert.False(t, st.IsLoading)
	assert.NoError(t, st.Err)
	assert.Equal(t, []call{{5, 0, ""}}, b.calls)
}

func TestLoadInitial_SeededSkipsFetch(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 12}}
	p, err := New("", Data[row]{Items: rows(0, 5), PageSize: 5, KnownCount: intPtr(12)}, b.fetch)
	require.NoError(t, err)

	assert.False(t, p.LoadInitial(context.Background()))
	assert.Equal(t, 0, b.callCount())

	assert.True(t, p.LoadMore(context.Background(), 4))
	assert.Equal(t, []call{{5, 5, ""}}, b.calls, "offset continues after seeded items")
}

func TestLoadMore_Threshold(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 20}}
	p := newPaginator(t, b, 5)
	ctx := context.Background()
	require.True(t, p.LoadInitial(ctx))

	// 5 items, threshold 2: rows 0..2 are too far from the end
	for after := 0; after < 3; after++ {
		assert.False(t, p.LoadMore(ctx, after), "after=%d", after)
	}
	assert.True(t, p.LoadMore(ctx, 3))
	assert.Len(t, p.State().Items, 10)
	assert.Equal(t, 2, b.callCount())
}

func TestLoadMore_OffsetIsItemCount(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 13}}
	p := newPaginator(t, b, 5)
	ctx := context.Background()

	p.LoadInitial(ctx)
	for p.LoadMore(ctx, len(p.State().Items)-1) {
	}

	want := []call{{5, 0, ""}, {5, 5, ""}, {5, 10, ""}}
	if diff := cmp.Diff(want, b.calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	st := p.State()
	assert.Len(t, st.Items, 13)
	assert.True(t, st.Exhausted)
}

func TestLoadMore_StopsAtKnownCount(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 10}}
	p := newPaginator(t, b, 5)
	ctx := context.Background()

	p.LoadInitial(ctx)
	require.True(t, p.LoadMore(ctx, 4))
	assert.Len(t, p.State().Items, 10)

	assert.False(t, p.LoadMore(ctx, 9), "known count reached")
	assert.Equal(t, 2, b.callCount())
}

func TestLoadMore_ShortPageExhausts(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 7}, noTotal: true}
	p := newPaginator(t, b, 5)
	ctx := context.Background()

	p.LoadInitial(ctx)
	require.True(t, p.LoadMore(ctx, 4))

	st := p.State()
	assert.Len(t, st.Items, 7)
	assert.Nil(t, st.KnownCount)
	assert.True(t, st.Exhausted)
	assert.False(t, p.LoadMore(ctx, 6))
}

func TestLoadMore_DeduplicatesAndTruncates(t *testing.T) {
	ctx := context.Background()
	var pages = [][]row{
		rows(0, 4),
		append(rows(2, 4), rows(4, 8)...),
	}
	var n int
	fetch := func(ctx context.Context, limit, offset int, _ string) (Page[row], error) {
		page := pages[n]
		n++
		return Page[row]{Items: page, Total: intPtr(7)}, nil
	}

	p, err := New("", Data[row]{PageSize: 4}, fetch)
	require.NoError(t, err)

	p.LoadInitial(ctx)
	require.True(t, p.LoadMore(ctx, 3))

	got := ids(p.State().Items)
	assert.Equal(t, ids(rows(0, 7)), got, "duplicates dropped and list cut at known count")
}

func TestItemsNeverExceedKnownCount(t *testing.T) {
	for _, tc := range []struct{ total, pageSize int }{{0, 3}, {1, 3}, {3, 3}, {10, 3}, {11, 4}, {25, 7}} {
		t.Run(fmt.Sprintf("total=%d/page=%d", tc.total, tc.pageSize), func(t *testing.T) {
			b := &fakeBackend{total: map[string]int{"": tc.total}}
			p := newPaginator(t, b, tc.pageSize)
			ctx := context.Background()

			p.LoadInitial(ctx)
			for i := 0; i < 20 && p.LoadMore(ctx, len(p.State().Items)-1); i++ {
				st := p.State()
				require.LessOrEqual(t, len(st.Items), *st.KnownCount)
			}

			st := p.State()
			assert.Len(t, st.Items, tc.total)
			seen := map[string]bool{}
			for _, it := range st.Items {
				assert.False(t, seen[it.ID], "duplicate %s", it.ID)
				seen[it.ID] = true
			}
		})
	}
}

func TestFetchError(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 20}}
	p := newPaginator(t, b, 5)
	ctx := context.Background()

	p.LoadInitial(ctx)

	boom := errors.New("boom")
	b.fail = boom
	require.True(t, p.LoadMore(ctx, 4))

	st := p.State()
	assert.ErrorIs(t, st.Err, boom)
	assert.Len(t, st.Items, 5, "items untouched on failure")
	assert.False(t, st.IsLoading)

	b.fail = nil
	require.True(t, p.LoadMore(ctx, 4))
	st = p.State()
	assert.NoError(t, st.Err, "success clears the error")
	assert.Len(t, st.Items, 10)
}

func TestRefresh(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 20}}
	p := newPaginator(t, b, 5)
	ctx := context.Background()

	p.LoadInitial(ctx)
	p.LoadMore(ctx, 4)
	require.Len(t, p.State().Items, 10)

	b.total[""] = 3
	require.True(t, p.Refresh(ctx))

	st := p.State()
	assert.Equal(t, ids(rows(0, 3)), ids(st.Items), "refresh replaces items wholesale")
	assert.Equal(t, 3, *st.KnownCount)
	assert.False(t, st.IsRefreshing)
	assert.Equal(t, call{5, 0, ""}, b.calls[len(b.calls)-1])
}

func TestRefresh_FailureKeepsItems(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 20}}
	p := newPaginator(t, b, 5)
	ctx := context.Background()
	p.LoadInitial(ctx)

	b.fail = errors.New("offline")
	require.True(t, p.Refresh(ctx))

	st := p.State()
	assert.Error(t, st.Err)
	assert.Equal(t, ids(rows(0, 5)), ids(st.Items))
	assert.False(t, st.IsRefreshing)
}

// blockingFetcher parks every fetch until released, so tests can observe
// the in-flight state.
type blockingFetcher struct {
	started chan call
	release chan struct{}
	calls   atomic.Int32
	total   int
}

func newBlockingFetcher(total int) *blockingFetcher {
	return &blockingFetcher{started: make(chan call, 16), release: make(chan struct{}), total: total}
}

func (f *blockingFetcher) fetch(ctx context.Context, limit, offset int, key string) (Page[row], error) {
	f.calls.Add(1)
	f.started <- call{limit, offset, key}
	select {
	case <-f.release:
	case <-ctx.Done():
		return Page[row]{}, ctx.Err()
	}
	end := min(offset+limit, f.total)
	var items []row
	for i := offset; i < end; i++ {
		items = append(items, row{ID: fmt.Sprintf("%s-%d", key, i)})
	}
	return Page[row]{Items: items, Total: intPtr(f.total)}, nil
}

func TestSingleFlight(t *testing.T) {
	f := newBlockingFetcher(20)
	p, err := New("", Data[row]{PageSize: 5, PlaceholderItems: rows(100, 102)}, f.fetch)
	require.NoError(t, err)
	ctx := context.Background()

	done := make(chan bool)
	go func() { done <- p.LoadInitial(ctx) }()
	<-f.started

	st := p.State()
	assert.True(t, st.IsLoading)
	assert.True(t, st.ShowingPlaceholders)
	assert.Equal(t, ids(rows(100, 102)), ids(st.VisibleItems))

	assert.False(t, p.LoadInitial(ctx))
	assert.False(t, p.LoadMore(ctx, 0))
	assert.False(t, p.Refresh(ctx), "refresh is a no-op while loading")

	close(f.release)
	assert.True(t, <-done)
	assert.EqualValues(t, 1, f.calls.Load())

	st = p.State()
	assert.False(t, st.ShowingPlaceholders)
	assert.Len(t, st.VisibleItems, 5)
}

func TestShowingPlaceholders(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 0}, fail: errors.New("x")}
	p := newPaginator(t, b, 5)

	assert.False(t, p.State().ShowingPlaceholders, "not loading")

	p.LoadInitial(context.Background())
	st := p.State()
	assert.Error(t, st.Err)
	assert.False(t, st.ShowingPlaceholders, "error hides placeholders")
	assert.Empty(t, st.VisibleItems)
}

func TestSetContext_DiscardsStaleFetch(t *testing.T) {
	f := newBlockingFetcher(8)
	p, err := New("open", Data[row]{PageSize: 5}, f.fetch)
	require.NoError(t, err)
	ctx := context.Background()

	staleDone := make(chan struct{})
	go func() {
		p.LoadInitial(ctx)
		close(staleDone)
	}()
	assert.Equal(t, call{5, 0, "open"}, <-f.started)

	freshDone := make(chan struct{})
	go func() {
		p.SetContext(ctx, "closed")
		close(freshDone)
	}()

	<-staleDone // cancelled by the switch
	assert.Equal(t, call{5, 0, "closed"}, <-f.started)

	close(f.release)
	<-freshDone

	st := p.State()
	assert.Equal(t, "closed", st.Context)
	require.Len(t, st.Items, 5)
	for _, it := range st.Items {
		assert.Contains(t, it.ID, "closed-")
	}
	assert.NoError(t, st.Err, "cancelled stale fetch must not leak its error")
}

func TestSetContext_SameKeyIsNoop(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 5}}
	p := newPaginator(t, b, 5)
	p.LoadInitial(context.Background())

	assert.False(t, p.SetContext(context.Background(), ""))
	assert.Equal(t, 1, b.callCount())
}

func TestSetContext_Resets(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"a": 12, "b": 3}}
	p, err := New("a", Data[row]{PageSize: 5}, b.fetch)
	require.NoError(t, err)
	ctx := context.Background()

	p.LoadInitial(ctx)
	p.LoadMore(ctx, 4)
	require.Len(t, p.State().Items, 10)

	require.True(t, p.SetContext(ctx, "b"))
	st := p.State()
	assert.Len(t, st.Items, 3)
	assert.Equal(t, 3, *st.KnownCount)
	assert.Equal(t, call{5, 0, "b"}, b.calls[len(b.calls)-1])
}

func TestUpdateItem(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 5}}
	p := newPaginator(t, b, 5)
	p.LoadInitial(context.Background())

	before := p.State()
	assert.True(t, p.UpdateItem(row{ID: "r2", Title: "updated"}))
	after := p.State()
	assert.Equal(t, "updated", after.Items[2].Title)
	assert.Equal(t, "", before.Items[2].Title, "earlier snapshots are immutable")
	assert.Greater(t, after.Version, before.Version)

	assert.False(t, p.UpdateItem(row{ID: "missing"}))
}

func TestCurrentData_SeedsAnotherPaginator(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 9}}
	p := newPaginator(t, b, 5)
	p.LoadInitial(context.Background())

	data := p.CurrentData()
	q, err := New("", data, b.fetch)
	require.NoError(t, err)

	assert.Equal(t, ids(p.State().Items), ids(q.State().Items))
	assert.Equal(t, 9, *q.State().KnownCount)

	data.Items[0].Title = "mutated"
	assert.Equal(t, "", p.State().Items[0].Title)
}

func TestSubscribe(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 5}}
	p := newPaginator(t, b, 5)

	var mu sync.Mutex
	var seen []State[row, string]
	cancel := p.Subscribe(func(st State[row, string]) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st)
		_ = p.State() // callbacks may re-enter
	})

	p.LoadInitial(context.Background())

	mu.Lock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsLoading)
	assert.False(t, seen[1].IsLoading)
	assert.Len(t, seen[1].Items, 5)
	assert.Less(t, seen[0].Version, seen[1].Version)
	mu.Unlock()

	cancel()
	cancel()
	p.UpdateItem(row{ID: "r0", Title: "x"})

	mu.Lock()
	assert.Len(t, seen, 2, "no notifications after cancel")
	mu.Unlock()
}

func TestConcurrentLoadMore(t *testing.T) {
	b := &fakeBackend{total: map[string]int{"": 200}}
	p := newPaginator(t, b, 10)
	ctx := context.Background()
	p.LoadInitial(ctx)

	var wg sync.WaitGroup
	deadline := time.Now().Add(2 * time.Second)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				st := p.State()
				if st.Exhausted || (st.KnownCount != nil && len(st.Items) >= *st.KnownCount) {
					return
				}
				p.LoadMore(ctx, len(st.Items)-1)
			}
		}()
	}
	wg.Wait()

	st := p.State()
	assert.Len(t, st.Items, 200)
	assert.Equal(t, ids(rows(0, 200)), ids(st.Items), "pages applied in order without gaps")
}
