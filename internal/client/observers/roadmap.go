package observers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/client/pagination"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
)

var (
	ErrUnknownTab     = errors.New("unknown roadmap tab")
	ErrTicketNotFound = errors.New("ticket is not loaded")
	ErrVotingDisabled = errors.New("voting is disabled for this ticket")
	ErrVoteInFlight   = errors.New("a vote for this ticket is already being submitted")
)

// TicketAPI is the part of the feedback API the roadmap needs.
type TicketAPI interface {
	PaginateTickets(ctx context.Context, limit, offset int, filter string) (models.UserTicketCollection, error)
	VoteForTicket(ctx context.Context, ticketID string) error
	RemoveVoteForTicket(ctx context.Context, ticketID string) error
}

type RoadmapContent struct {
	Title       string
	Tabs        []models.RoadmapTab
	SelectedTab string
	EmptyState  EmptyStateContent
	ErrorState  EmptyStateContent
	Tickets     pagination.State[TicketContent, string]
}

// RoadmapObserver owns the tickets paginator for the selected tab and a
// per-tab cache of what was already loaded, so switching back to a tab
// shows its tickets without refetching.
type RoadmapObserver struct {
	api      TicketAPI
	log      logging.Logger
	pageSize int
	tabs     []models.RoadmapTab

	mu          sync.Mutex
	paginator   *pagination.Paginator[TicketContent, string]
	unsubscribe func()
	selected    string
	cache       map[string]pagination.Data[TicketContent]
	voting      map[string]bool

	subs subscribers[RoadmapContent]
}

// NewRoadmapObserver builds the observer for roadmap with initialTab
// selected (the first tab when empty). seed, when given, is the first page
// of tickets for that tab.
func NewRoadmapObserver(api TicketAPI, roadmap models.RoadmapConfiguration, initialTab string, seed *models.UserTicketCollection, opts ...Option) (*RoadmapObserver, error) {
	o := buildOptions(opts)

	if initialTab == "" && len(roadmap.Tabs) > 0 {
		initialTab = roadmap.Tabs[0].Key
	}

	r := &RoadmapObserver{
		api:      api,
		log:      o.log.With("component", "roadmap"),
		pageSize: o.pageSize,
		tabs:     slices.Clone(roadmap.Tabs),
		selected: initialTab,
		cache:    map[string]pagination.Data[TicketContent]{},
		voting:   map[string]bool{},
	}
	if !r.knownTab(initialTab) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, initialTab)
	}

	data := r.emptyData()
	if seed != nil {
		if seed.PageSize > 0 {
			data.PageSize = seed.PageSize
		}
		for _, t := range seed.Data {
			data.Items = append(data.Items, NewTicketContent(t))
		}
		data.KnownCount = pageTotal(seed.TotalCount, len(seed.Data))
		r.cache[initialTab] = data
	}

	p, err := pagination.New(initialTab, data, r.fetch, pagination.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	r.attach(p)
	return r, nil
}

func (r *RoadmapObserver) emptyData() pagination.Data[TicketContent] {
	data := pagination.Data[TicketContent]{PageSize: r.pageSize}
	for i := range placeholderCount {
		data.PlaceholderItems = append(data.PlaceholderItems, redactedTicket(i))
	}
	return data
}

func (r *RoadmapObserver) knownTab(key string) bool {
	if len(r.tabs) == 0 {
		return true
	}
	return slices.ContainsFunc(r.tabs, func(t models.RoadmapTab) bool { return t.Key == key })
}

func (r *RoadmapObserver) fetch(ctx context.Context, limit, offset int, tab string) (pagination.Page[TicketContent], error) {
	r.log.Debug(ctx, "loading more tickets", "limit", limit, "offset", offset, "tab", tab)

	resp, err := r.api.PaginateTickets(ctx, limit, offset, tab)
	if err != nil {
		return pagination.Page[TicketContent]{}, err
	}

	items := make([]TicketContent, 0, len(resp.Data))
	for _, t := range resp.Data {
		items = append(items, NewTicketContent(t))
	}
	return pagination.Page[TicketContent]{Items: items, Total: pageTotal(resp.TotalCount, len(resp.Data))}, nil
}

func (r *RoadmapObserver) attach(p *pagination.Paginator[TicketContent, string]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.paginator = p
	r.unsubscribe = p.Subscribe(r.onChange)
}

func (r *RoadmapObserver) onChange(st pagination.State[TicketContent, string]) {
	r.mu.Lock()
	if st.Context != r.selected {
		r.mu.Unlock()
		return
	}
	if len(st.Items) > 0 {
		r.cache[st.Context] = pagination.Data[TicketContent]{
			Items:            st.Items,
			PlaceholderItems: st.PlaceholderItems,
			PageSize:         st.PageSize,
			KnownCount:       st.KnownCount,
		}
	}
	content := r.contentLocked(st)
	r.mu.Unlock()

	r.subs.send(content)
}

func (r *RoadmapObserver) current() *pagination.Paginator[TicketContent, string] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paginator
}

func (r *RoadmapObserver) LoadInitial(ctx context.Context) bool {
	return r.current().LoadInitial(ctx)
}

func (r *RoadmapObserver) LoadMore(ctx context.Context, after int) bool {
	return r.current().LoadMore(ctx, after)
}

func (r *RoadmapObserver) Refresh(ctx context.Context) bool {
	return r.current().Refresh(ctx)
}

// SelectTab switches the ticket list to tab. A tab seen before is restored
// from cache; a new one is loaded from the first page, cancelling any fetch
// still running for the previous tab. It blocks until that load finishes.
func (r *RoadmapObserver) SelectTab(ctx context.Context, tab string) error {
	r.mu.Lock()
	if tab == r.selected {
		r.mu.Unlock()
		return nil
	}
	if !r.knownTab(tab) {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	r.selected = tab
	cached, ok := r.cache[tab]
	p := r.paginator
	r.mu.Unlock()

	if ok {
		r.log.Debug(ctx, "tab changed to cached tab", "tab", tab)

		np, err := pagination.New(tab, cached, r.fetch, pagination.WithLogger(r.log))
		if err != nil {
			return err
		}
		r.attach(np)
		r.subs.send(r.Content())
		return nil
	}

	r.log.Debug(ctx, "tab changed to new tab", "tab", tab)
	p.SetContext(ctx, tab)
	return nil
}

// ToggleVote flips the current user's vote on a loaded ticket. The change
// is shown immediately and rolled back if the backend rejects it.
func (r *RoadmapObserver) ToggleVote(ctx context.Context, ticketID string) error {
	r.mu.Lock()
	if r.voting[ticketID] {
		r.mu.Unlock()
		return ErrVoteInFlight
	}
	p := r.paginator
	r.mu.Unlock()

	st := p.State()
	idx := slices.IndexFunc(st.Items, func(t TicketContent) bool { return t.ID == ticketID })
	if idx < 0 {
		return ErrTicketNotFound
	}
	original := st.Items[idx]
	if !original.VotingEnabled {
		return ErrVotingDisabled
	}

	r.mu.Lock()
	if r.voting[ticketID] {
		r.mu.Unlock()
		return ErrVoteInFlight
	}
	r.voting[ticketID] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.voting, ticketID)
		r.mu.Unlock()
	}()

	voted := !original.Voted
	updated := NewTicketContent(original.Ticket.WithVote(voted))
	r.replaceTicket(updated)

	var err error
	if voted {
		err = r.api.VoteForTicket(ctx, ticketID)
	} else {
		err = r.api.RemoveVoteForTicket(ctx, ticketID)
	}
	if err != nil {
		r.log.Warn(ctx, "vote update failed, rolling back", "ticket_id", ticketID, "error", err)
		r.replaceTicket(original)
		return err
	}
	return nil
}

// replaceTicket updates the ticket in every cached tab and in the paginator
// current at the time of the call, which may differ from the one the vote
// started on.
func (r *RoadmapObserver) replaceTicket(t TicketContent) {
	r.mu.Lock()
	for key, data := range r.cache {
		i := slices.IndexFunc(data.Items, func(c TicketContent) bool { return c.ID == t.ID })
		if i < 0 {
			continue
		}
		data.Items = slices.Clone(data.Items)
		data.Items[i] = t
		r.cache[key] = data
	}
	p := r.paginator
	r.mu.Unlock()

	if slices.ContainsFunc(p.State().Items, func(c TicketContent) bool { return c.ID == t.ID }) {
		p.UpdateItem(t)
	}
}

func (r *RoadmapObserver) Content() RoadmapContent {
	p := r.current()
	st := p.State()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contentLocked(st)
}

func (r *RoadmapObserver) Subscribe(fn func(RoadmapContent)) (cancel func()) {
	return r.subs.add(fn)
}

func (r *RoadmapObserver) contentLocked(st pagination.State[TicketContent, string]) RoadmapContent {
	return RoadmapContent{
		Title:       "Roadmap",
		Tabs:        slices.Clone(r.tabs),
		SelectedTab: r.selected,
		EmptyState: EmptyStateContent{
			Title:    "No tickets yet",
			Subtitle: "This is your opportunity to be the first",
		},
		ErrorState: EmptyStateContent{
			Title:    genericErrorTitle,
			Subtitle: "Failed to load roadmap. Please try again later.",
		},
		Tickets: st,
	}
}
