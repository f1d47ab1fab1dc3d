// Package models defines the wire types exchanged with the feedback backend.
package models

import "time"

type ReleaseType string

const (
	ReleaseTypeMajor  ReleaseType = "major"
	ReleaseTypeMinor  ReleaseType = "minor"
	ReleaseTypePatch  ReleaseType = "patch"
	ReleaseTypeLaunch ReleaseType = "launch"
)

type ReleaseStatus string

const (
	ReleaseStatusPending   ReleaseStatus = "pending"
	ReleaseStatusScheduled ReleaseStatus = "scheduled"
	ReleaseStatusReleased  ReleaseStatus = "released"
)

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ReleaseHeader struct {
	ID   string `json:"id"`
	Size Size   `json:"size"`
	URL  string `json:"url"`
}

// AppReleaseStub is one row of the paginated release list.
type AppReleaseStub struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
	Name          string         `json:"name"`
	Version       string         `json:"version"`
	Description   *string        `json:"description,omitempty"`
	Type          ReleaseType    `json:"type"`
	TenantID      string         `json:"tenant_id"`
	ReleaseNumber int            `json:"release_number"`
	Status        ReleaseStatus  `json:"status"`
	Header        *ReleaseHeader `json:"header,omitempty"`
}

func (r AppReleaseStub) ItemID() string { return r.ID }

type AppReleaseItem struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ReleaseID string     `json:"release_id"`
	TicketID  string     `json:"ticket_id"`
	Ticket    TicketStub `json:"ticket"`
}

type AppReleaseSection struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	Items []AppReleaseItem `json:"items"`
}

// AppRelease is a single release with its sections.
type AppRelease struct {
	AppReleaseStub
	Sections []AppReleaseSection `json:"sections"`
}

type AppReleaseCollection struct {
	CollectionMeta
	Data []AppReleaseStub `json:"data"`
}
