package models

import "time"

type TicketType string

const (
	TicketTypeBug         TicketType = "bug"
	TicketTypeFeature     TicketType = "feature"
	TicketTypeImprovement TicketType = "improvement"
	TicketTypeTask        TicketType = "task"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusPlanning   TicketStatus = "planning"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusDone       TicketStatus = "done"
	TicketStatusLive       TicketStatus = "live"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusArchived   TicketStatus = "archived"
)

type TicketDisplayStatus string

const (
	TicketDisplayStatusPending    TicketDisplayStatus = "pending"
	TicketDisplayStatusInProgress TicketDisplayStatus = "in_progress"
	TicketDisplayStatusLive       TicketDisplayStatus = "live"
	TicketDisplayStatusRejected   TicketDisplayStatus = "rejected"
)

// UserTicket is a roadmap ticket as seen by the current user, including
// whether they voted for it.
type UserTicket struct {
	ID                      string              `json:"id"`
	TicketNumber            string              `json:"ticket_number"`
	CreatedAt               time.Time           `json:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
	DeletedAt               *time.Time          `json:"deleted_at,omitempty"`
	Title                   string              `json:"title"`
	Type                    TicketType          `json:"type"`
	Description             *string             `json:"description,omitempty"`
	Status                  TicketStatus        `json:"status"`
	DisplayStatus           TicketDisplayStatus `json:"display_status"`
	DisplayStatusBadgeTitle string              `json:"display_status_badge_title"`
	VoteCount               int                 `json:"vote_count"`
	VotingEnabled           bool                `json:"voting_enabled"`
	Voted                   bool                `json:"voted"`
}

func (t UserTicket) ItemID() string { return t.ID }

// WithVote returns a copy with the vote flag set and the count adjusted.
// Setting the flag it already has is a no-op.
func (t UserTicket) WithVote(voted bool) UserTicket {
	if t.Voted == voted {
		return t
	}
	t.Voted = voted
	if voted {
		t.VoteCount++
	} else if t.VoteCount > 0 {
		t.VoteCount--
	}
	return t
}

type UserTicketCollection struct {
	CollectionMeta
	Data []UserTicket `json:"data"`
}

// TicketStub is the ticket summary embedded in release items.
type TicketStub struct {
	ID            string       `json:"id"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Title         string       `json:"title"`
	ShortTitle    *string      `json:"short_title,omitempty"`
	Type          TicketType   `json:"type"`
	Status        TicketStatus `json:"status"`
	Description   *string      `json:"description,omitempty"`
	VotingEnabled bool         `json:"voting_enabled"`
	IsPublic      bool         `json:"is_public"`
	TicketNumber  string       `json:"ticket_number"`
	TenantID      string       `json:"tenant_id"`
	VoteCount     int          `json:"vote_count"`
}

type RoadmapTab struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Key         string  `json:"key"`
	Description *string `json:"description,omitempty"`
}

type RoadmapConfiguration struct {
	Tabs []RoadmapTab `json:"tabs"`
}
