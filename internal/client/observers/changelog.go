package observers

import (
	"context"
	"time"

	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/client/pagination"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
)

// ReleaseAPI is the part of the feedback API the changelog needs.
type ReleaseAPI interface {
	PaginateReleases(ctx context.Context, limit, offset int) (models.AppReleaseCollection, error)
	GetRelease(ctx context.Context, releaseID string) (models.AppRelease, error)
}

type ChangelogContent struct {
	Title      string
	EmptyState EmptyStateContent
	ErrorState EmptyStateContent
	Releases   pagination.State[ReleaseContent, string]
}

// ChangelogObserver owns the releases paginator.
type ChangelogObserver struct {
	api       ReleaseAPI
	log       logging.Logger
	now       func() time.Time
	paginator *pagination.Paginator[ReleaseContent, string]
	subs      subscribers[ChangelogContent]
}

// NewChangelogObserver builds the observer. With a seed collection the list
// starts populated; without one it shows redacted placeholder rows until
// LoadInitial completes.
func NewChangelogObserver(api ReleaseAPI, seed *models.AppReleaseCollection, opts ...Option) (*ChangelogObserver, error) {
	o := buildOptions(opts)
	c := &ChangelogObserver{
		api: api,
		log: o.log.With("component", "changelog"),
		now: o.now,
	}

	data := pagination.Data[ReleaseContent]{PageSize: o.pageSize}
	if seed != nil {
		if seed.PageSize > 0 {
			data.PageSize = seed.PageSize
		}
		for _, stub := range seed.Data {
			data.Items = append(data.Items, NewReleaseContent(stub, c.now()))
		}
		data.KnownCount = pageTotal(seed.TotalCount, len(seed.Data))
	} else {
		for i := range placeholderCount {
			data.PlaceholderItems = append(data.PlaceholderItems, redactedRelease(i))
		}
	}

	p, err := pagination.New("", data, c.fetch, pagination.WithLogger(c.log))
	if err != nil {
		return nil, err
	}
	c.paginator = p
	p.Subscribe(func(st pagination.State[ReleaseContent, string]) {
		c.subs.send(c.content(st))
	})
	return c, nil
}

func (c *ChangelogObserver) fetch(ctx context.Context, limit, offset int, _ string) (pagination.Page[ReleaseContent], error) {
	c.log.Debug(ctx, "loading more releases", "limit", limit, "offset", offset)

	resp, err := c.api.PaginateReleases(ctx, limit, offset)
	if err != nil {
		return pagination.Page[ReleaseContent]{}, err
	}

	now := c.now()
	items := make([]ReleaseContent, 0, len(resp.Data))
	for _, stub := range resp.Data {
		items = append(items, NewReleaseContent(stub, now))
	}
	return pagination.Page[ReleaseContent]{Items: items, Total: pageTotal(resp.TotalCount, len(resp.Data))}, nil
}

func (c *ChangelogObserver) LoadInitial(ctx context.Context) bool {
	return c.paginator.LoadInitial(ctx)
}

// LoadMore is called as row after becomes visible.
func (c *ChangelogObserver) LoadMore(ctx context.Context, after int) bool {
	return c.paginator.LoadMore(ctx, after)
}

func (c *ChangelogObserver) Refresh(ctx context.Context) bool {
	return c.paginator.Refresh(ctx)
}

// Release loads the full release behind a row.
func (c *ChangelogObserver) Release(ctx context.Context, releaseID string) (models.AppRelease, error) {
	return c.api.GetRelease(ctx, releaseID)
}

func (c *ChangelogObserver) Content() ChangelogContent {
	return c.content(c.paginator.State())
}

// Subscribe delivers fresh content after every paginator change.
func (c *ChangelogObserver) Subscribe(fn func(ChangelogContent)) (cancel func()) {
	return c.subs.add(fn)
}

func (c *ChangelogObserver) content(st pagination.State[ReleaseContent, string]) ChangelogContent {
	return ChangelogContent{
		Title: "Releases",
		EmptyState: EmptyStateContent{
			Title:    "No new releases yet",
			Subtitle: "Stay tuned for future updates!",
		},
		ErrorState: EmptyStateContent{
			Title:    genericErrorTitle,
			Subtitle: "Failed to load changelog. Please try again later.",
		},
		Releases: st,
	}
}
