// Package observers turns paginator state into immutable, display-ready
// content for the changelog and roadmap surfaces.
package observers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
	"github.com/dmitrijs2005/feedbackkit/internal/timex"
)

// DefaultPageSize is used when no seed response supplies one.
const DefaultPageSize = 15

// placeholderCount is how many redacted rows are shown while the first page
// loads.
const placeholderCount = 15

// EmptyStateContent is the copy for an empty or failed list.
type EmptyStateContent struct {
	Title    string
	Subtitle string
}

const genericErrorTitle = "Something went wrong"

// ReleaseContent is one display row of the changelog.
type ReleaseContent struct {
	ID            string
	Name          string
	Version       string
	Description   string
	Type          string
	ReleaseNumber string
	Status        models.ReleaseStatus
	CreatedAt     time.Time
	CreatedAgo    string
	Redacted      bool

	Stub models.AppReleaseStub
}

func (r ReleaseContent) ItemID() string { return r.ID }

func NewReleaseContent(stub models.AppReleaseStub, now time.Time) ReleaseContent {
	c := ReleaseContent{
		ID:            stub.ID,
		Name:          stub.Name,
		Version:       stub.Version,
		Type:          releaseTypeLabel(stub.Type),
		ReleaseNumber: strconv.Itoa(stub.ReleaseNumber),
		Status:        stub.Status,
		CreatedAt:     stub.CreatedAt,
		CreatedAgo:    timex.Ago(now, stub.CreatedAt),
		Stub:          stub,
	}
	if stub.Description != nil {
		c.Description = *stub.Description
	}
	return c
}

func redactedRelease(i int) ReleaseContent {
	return ReleaseContent{
		ID:            fmt.Sprintf("redacted-release-%d", i),
		Name:          "Release name placeholder",
		Version:       "1.0.0",
		Type:          releaseTypeLabel(models.ReleaseTypeMinor),
		ReleaseNumber: "0",
		Status:        models.ReleaseStatusReleased,
		Redacted:      true,
	}
}

func releaseTypeLabel(t models.ReleaseType) string {
	switch t {
	case models.ReleaseTypeMajor:
		return "Major"
	case models.ReleaseTypeMinor:
		return "Minor"
	case models.ReleaseTypePatch:
		return "Patch"
	case models.ReleaseTypeLaunch:
		return "Launch"
	default:
		return ""
	}
}

// TicketContent is one display row of the roadmap.
type TicketContent struct {
	ID            string
	TicketNumber  string
	Title         string
	Description   string
	StatusTitle   string
	DisplayStatus models.TicketDisplayStatus
	VoteCount     int
	Voted         bool
	VotingEnabled bool
	Redacted      bool

	Ticket models.UserTicket
}

func (t TicketContent) ItemID() string { return t.ID }

func NewTicketContent(ticket models.UserTicket) TicketContent {
	c := TicketContent{
		ID:            ticket.ID,
		TicketNumber:  ticket.TicketNumber,
		Title:         ticket.Title,
		StatusTitle:   ticket.DisplayStatusBadgeTitle,
		DisplayStatus: ticket.DisplayStatus,
		VoteCount:     ticket.VoteCount,
		Voted:         ticket.Voted,
		VotingEnabled: ticket.VotingEnabled,
		Ticket:        ticket,
	}
	if ticket.Description != nil {
		c.Description = *ticket.Description
	}
	return c
}

func redactedTicket(i int) TicketContent {
	return TicketContent{
		ID:            fmt.Sprintf("redacted-ticket-%d", i),
		TicketNumber:  "0",
		Title:         "Ticket title placeholder",
		StatusTitle:   "Pending",
		DisplayStatus: models.TicketDisplayStatusPending,
		Redacted:      true,
	}
}

type Option func(*options)

type options struct {
	pageSize int
	log      logging.Logger
	now      func() time.Time
}

// WithPageSize sets the page size used when no seed response is given.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{pageSize: DefaultPageSize, log: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize <= 0 {
		o.pageSize = DefaultPageSize
	}
	return o
}
