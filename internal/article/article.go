package article

import (
	"fmt"
	"strings"
	"time"

	articleDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/article"
)

type Status string

const (
	StatusDraft           Status = "Draft"
	StatusPendingApproval Status = "PendingApproval"
	StatusPublished       Status = "Published"
	StatusRejected        Status = "Rejected"
)

// ParseStatus accepts the canonical names case-insensitively, plus the
// spaced and snake_case spellings of PendingApproval.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "draft":
		return StatusDraft, nil
	case "pendingapproval", "pending approval", "pending_approval", "pending":
		return StatusPendingApproval, nil
	case "published":
		return StatusPublished, nil
	case "rejected":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown article status %q", raw)
}

type Article struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	AuthorID          int64      `json:"authorId"`
	AuthorName        string     `json:"authorName,omitempty"`
	PublicationStatus Status     `json:"publicationStatus"`
	AvailableFrom     *time.Time `json:"availableFrom,omitempty"`
	AvailableUntil    *time.Time `json:"availableUntil,omitempty"`
	ViewCount         int64      `json:"viewCount"`
	PublishedBy       *int64     `json:"publishedBy,omitempty"`
	PublisherName     *string    `json:"publisherName,omitempty"`
	PublishedAt       *time.Time `json:"publishedAt,omitempty"`
	RejectionReason   *string    `json:"rejectionReason,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func NewArticle(title, content string, authorID int64) *Article {
	return &Article{
		Title:             title,
		Content:           content,
		AuthorID:          authorID,
		PublicationStatus: StatusDraft,
	}
}

// CanEdit reports whether title and content may still change.
func (a *Article) CanEdit() bool {
	return a.PublicationStatus == StatusDraft || a.PublicationStatus == StatusRejected
}

func (a *Article) IsPublished() bool {
	return a.PublicationStatus == StatusPublished
}

// IsAvailable reports whether a published article is inside its
// availability window at now. A nil AvailableUntil means indefinitely.
func (a *Article) IsAvailable(now time.Time) bool {
	if !a.IsPublished() || a.AvailableFrom == nil || a.AvailableFrom.After(now) {
		return false
	}
	return a.AvailableUntil == nil || !a.AvailableUntil.Before(now)
}

func (a *Article) Submit() error {
	if a.PublicationStatus != StatusDraft {
		return transitionError(a.PublicationStatus, StatusPendingApproval)
	}
	a.PublicationStatus = StatusPendingApproval
	return nil
}

// Approve publishes the article. The window is validated before anything
// on a is touched.
func (a *Article) Approve(publisherID int64, from time.Time, until *time.Time, now time.Time) error {
	if until != nil && !until.After(from) {
		return ErrInvalidAvailability
	}
	if a.PublicationStatus != StatusPendingApproval {
		return transitionError(a.PublicationStatus, StatusPublished)
	}
	a.PublicationStatus = StatusPublished
	a.PublishedBy = &publisherID
	a.PublishedAt = &now
	a.AvailableFrom = &from
	a.AvailableUntil = until
	return nil
}

func (a *Article) Reject(reason *string) error {
	if a.PublicationStatus != StatusPendingApproval {
		return transitionError(a.PublicationStatus, StatusRejected)
	}
	a.PublicationStatus = StatusRejected
	a.RejectionReason = reason
	return nil
}

func ToDataModel(a *Article) *articleDatamodel.ContentArticle {
	return &articleDatamodel.ContentArticle{
		ID:                a.ID,
		Title:             a.Title,
		Content:           a.Content,
		AuthorID:          a.AuthorID,
		PublicationStatus: string(a.PublicationStatus),
		AvailableFrom:     a.AvailableFrom,
		AvailableUntil:    a.AvailableUntil,
		ViewCount:         a.ViewCount,
		PublishedBy:       a.PublishedBy,
		PublishedAt:       a.PublishedAt,
		RejectionReason:   a.RejectionReason,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func FromDataModel(row *articleDatamodel.ContentArticle) *Article {
	status, err := ParseStatus(row.PublicationStatus)
	if err != nil {
		status = Status(row.PublicationStatus)
	}
	return &Article{
		ID:                row.ID,
		Title:             row.Title,
		Content:           row.Content,
		AuthorID:          row.AuthorID,
		AuthorName:        row.AuthorName,
		PublicationStatus: status,
		AvailableFrom:     utcPtr(row.AvailableFrom),
		AvailableUntil:    utcPtr(row.AvailableUntil),
		ViewCount:         row.ViewCount,
		PublishedBy:       row.PublishedBy,
		PublisherName:     row.PublisherName,
		PublishedAt:       utcPtr(row.PublishedAt),
		RejectionReason:   row.RejectionReason,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
