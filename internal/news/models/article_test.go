package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
)

func ptr[T any](v T) *T { return &v }

var (
	author   = domain.Actor{ID: "media-1", Name: "Media Officer", Role: domain.RoleMedia}
	reviewer = domain.Actor{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin}
	now      = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
)

func TestNewArticle(t *testing.T) {
	t.Run("requires a title", func(t *testing.T) {
		_, err := NewArticle(Draft{Title: ptr("   ")}, author, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = NewArticle(Draft{}, author, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("starts as draft owned by the author", func(t *testing.T) {
		a, err := NewArticle(Draft{Title: ptr(" T "), Tags: &[]string{"a", " a", "", "b"}}, author, now)
		require.NoError(t, err)
		assert.Equal(t, "T", a.Title)
		assert.Equal(t, StatusDraft, a.Status)
		assert.Equal(t, "media-1", a.AuthorID)
		assert.Equal(t, []string{"a", "b"}, a.Tags)
		assert.Nil(t, a.SubmittedAt)
	})
}

func TestLifecycle(t *testing.T) {
	a, err := NewArticle(Draft{Title: ptr("T")}, author, now)
	require.NoError(t, err)

	assert.True(t, dErrors.HasCode(a.CanDecide(), dErrors.CodeConflict), "drafts cannot be decided")

	require.NoError(t, a.CanSubmit())
	a.ApplySubmit("please review", now.Add(time.Minute))
	assert.Equal(t, StatusPending, a.Status)
	require.NotNil(t, a.SubmittedAt)
	require.NoError(t, a.CanDecide())

	a.ApplyReject("fix typo", now.Add(2*time.Minute))
	assert.Equal(t, StatusDraft, a.Status)
	assert.Equal(t, "fix typo", a.RejectionNotes)
	require.NotNil(t, a.SubmittedAt, "rejection keeps the last submission time")
	assert.Equal(t, now.Add(time.Minute), *a.SubmittedAt)

	a.ApplySubmit("", now.Add(3*time.Minute))
	a.ApplyApprove(reviewer, "ship it", now.Add(4*time.Minute))
	assert.Equal(t, StatusPublished, a.Status)
	require.NotNil(t, a.PublishedAt)
	assert.Equal(t, "admin-1", a.PublishedByID)
	assert.Equal(t, "ship it", a.ApprovalNotes)

	assert.True(t, dErrors.HasCode(a.CanDecide(), dErrors.CodeConflict))
	assert.True(t, dErrors.HasCode(a.CanSubmit(), dErrors.CodeConflict))
}

func TestApplyDraftRevertsToDraft(t *testing.T) {
	a, err := NewArticle(Draft{Title: ptr("T"), Summary: ptr("s")}, author, now)
	require.NoError(t, err)
	a.ApplySubmit("", now)
	a.ApplyApprove(reviewer, "", now)

	require.NoError(t, Draft{Content: ptr("body")}.ValidateUpdate())
	a.ApplyDraft(Draft{Content: ptr("body")}, now.Add(time.Hour))
	assert.Equal(t, StatusDraft, a.Status)
	assert.Equal(t, "T", a.Title)
	assert.Equal(t, "s", a.Summary)
	assert.Equal(t, "body", a.Content)

	err = Draft{Title: ptr("")}.ValidateUpdate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCloneIsDeep(t *testing.T) {
	a, err := NewArticle(Draft{Title: ptr("T"), Tags: &[]string{"x"}}, author, now)
	require.NoError(t, err)
	a.ApplySubmit("", now)

	c := a.Clone()
	c.Tags[0] = "y"
	*c.SubmittedAt = now.Add(time.Hour)
	assert.Equal(t, "x", a.Tags[0])
	assert.Equal(t, now, *a.SubmittedAt)
}
