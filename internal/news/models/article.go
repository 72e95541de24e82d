// Package models defines news articles and their review lifecycle.
package models

import (
	"slices"
	"strings"
	"time"

	"commission/pkg/domain"
	tagutil "commission/pkg/platform/strings"
	dErrors "commission/pkg/domain-errors"
)

// Status is the lifecycle state of an article.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ParseStatus validates a status from external input.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusDraft, StatusPending, StatusPublished, StatusArchived:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid news status: "+s)
}

// Article is a news item moving through draft, review and publication.
//
//	draft --submit--> pending --approve--> published
//	pending --reject--> draft
//
// Saving a draft always returns the article to draft, whatever its status.
type Article struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary"`
	Content         string     `json:"content"`
	Category        string     `json:"category"`
	ImageURL        string     `json:"imageUrl,omitempty"`
	Tags            []string   `json:"tags"`
	Status          Status     `json:"status"`
	AuthorID        string     `json:"authorId"`
	AuthorName      string     `json:"authorName"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	SubmissionNotes string     `json:"submissionNotes,omitempty"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	PublishedByID   string     `json:"publishedById,omitempty"`
	PublishedByName string     `json:"publishedByName,omitempty"`
	ApprovalNotes   string     `json:"approvalNotes,omitempty"`
	RejectionNotes  string     `json:"rejectionNotes,omitempty"`
}

// Clone returns a deep copy.
func (a *Article) Clone() *Article {
	if a == nil {
		return nil
	}
	c := *a
	c.Tags = slices.Clone(a.Tags)
	if a.SubmittedAt != nil {
		t := *a.SubmittedAt
		c.SubmittedAt = &t
	}
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}

// Draft is the caller-editable part of an article. Nil fields are left
// untouched when merged into an existing article.
type Draft struct {
	ID       string    `json:"id,omitempty"`
	Title    *string   `json:"title,omitempty"`
	Summary  *string   `json:"summary,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	ImageURL *string   `json:"imageUrl,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// NewArticle creates a draft authored by actor.
func NewArticle(d Draft, actor domain.Actor, now time.Time) (*Article, error) {
	if d.Title == nil || strings.TrimSpace(*d.Title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "news title is required")
	}
	a := &Article{
		ID:         strings.TrimSpace(d.ID),
		Tags:       []string{},
		Status:     StatusDraft,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	a.merge(d)
	return a, nil
}

// ValidateUpdate checks a draft merged into an existing article.
func (d Draft) ValidateUpdate() error {
	if d.Title != nil && strings.TrimSpace(*d.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "news title cannot be empty")
	}
	return nil
}

// ApplyDraft merges d and reverts the article to draft. Callers validate d
// with ValidateUpdate first.
func (a *Article) ApplyDraft(d Draft, now time.Time) {
	a.merge(d)
	a.Status = StatusDraft
	a.UpdatedAt = now
}

func (a *Article) merge(d Draft) {
	if d.Title != nil {
		a.Title = strings.TrimSpace(*d.Title)
	}
	if d.Summary != nil {
		a.Summary = *d.Summary
	}
	if d.Content != nil {
		a.Content = *d.Content
	}
	if d.Category != nil {
		a.Category = strings.TrimSpace(*d.Category)
	}
	if d.ImageURL != nil {
		a.ImageURL = strings.TrimSpace(*d.ImageURL)
	}
	if d.Tags != nil {
		a.Tags = tagutil.DedupeAndTrim(*d.Tags)
	}
}

// CanSubmit reports a conflict for published or archived articles; they must
// be saved as a draft before going back to review. Pending articles may be
// resubmitted.
func (a *Article) CanSubmit() error {
	if a.Status == StatusPublished || a.Status == StatusArchived {
		return dErrors.New(dErrors.CodeConflict, "article is "+string(a.Status)+" and cannot be submitted")
	}
	return nil
}

// ApplySubmit moves the article into review.
func (a *Article) ApplySubmit(notes string, now time.Time) {
	t := now
	a.Status = StatusPending
	a.SubmittedAt = &t
	a.SubmissionNotes = notes
	a.UpdatedAt = now
}

// CanDecide reports a conflict unless the article awaits review.
func (a *Article) CanDecide() error {
	if a.Status != StatusPending {
		return dErrors.New(dErrors.CodeConflict, "article is "+string(a.Status)+", not pending review")
	}
	return nil
}

// ApplyApprove publishes a pending article.
func (a *Article) ApplyApprove(reviewer domain.Actor, notes string, now time.Time) {
	t := now
	a.Status = StatusPublished
	a.PublishedAt = &t
	a.PublishedByID = reviewer.ID
	a.PublishedByName = reviewer.Name
	a.ApprovalNotes = notes
	a.UpdatedAt = now
}

// ApplyReject returns a pending article to its author. SubmittedAt is kept.
func (a *Article) ApplyReject(notes string, now time.Time) {
	a.Status = StatusDraft
	a.RejectionNotes = notes
	a.UpdatedAt = now
}

// Filter narrows article listings.
type Filter struct {
	Status   Status
	AuthorID string
	Category string
}

func (f Filter) Matches(a *Article) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.AuthorID != "" && a.AuthorID != f.AuthorID {
		return false
	}
	if f.Category != "" && !strings.EqualFold(a.Category, f.Category) {
		return false
	}
	return true
}
