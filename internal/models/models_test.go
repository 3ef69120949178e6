package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestApplyEditReturnsApprovedPostToPending(t *testing.T) {
	approvedAt := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	p := BlogPost{Title: "Old", Content: "body", Status: BlogApproved, ApprovedAt: &approvedAt}
	now := approvedAt.Add(time.Hour)

	p.ApplyEdit(BlogEdit{Title: ptr("  New title ")}, now)

	assert.Equal(t, "New title", p.Title)
	assert.Equal(t, "body", p.Content)
	assert.Equal(t, BlogPending, p.Status)
	assert.Nil(t, p.ApprovedAt)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestApplyEditKeepsRejectedStatus(t *testing.T) {
	p := BlogPost{Status: BlogRejected, Media: []Media{{Type: "image", URL: "data:x"}}}
	p.ApplyEdit(BlogEdit{Media: &[]Media{}}, time.Now())

	assert.Equal(t, BlogRejected, p.Status)
	assert.Empty(t, p.Media)
	assert.False(t, p.HasBody())
}

func TestExpired(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := BlogPost{CreatedAt: created}

	assert.False(t, p.Expired(created.Add(BlogTTL-time.Second)))
	assert.True(t, p.Expired(created.Add(BlogTTL)))
	assert.False(t, BlogPost{}.Expired(created), "zero creation time never expires")
}

func TestNewBlogView(t *testing.T) {
	p := BlogPost{Likes: []string{"a@x.com", "b@x.com"}}

	v := NewBlogView(p, "b@x.com")
	assert.Equal(t, 2, v.LikesCount)
	assert.True(t, v.LikedByCurrentUser)

	assert.False(t, NewBlogView(p, "").LikedByCurrentUser)
	assert.False(t, NewBlogView(p, "c@x.com").LikedByCurrentUser)
}

func TestProductViewHidesReports(t *testing.T) {
	p := Product{
		Name:  "Jute bag",
		Price: 120,
		Reports: []Report{
			{ReporterEmail: "a@x.com", Reason: ReasonSpam},
			{ReporterEmail: "b@x.com", Reason: ReasonFake},
		},
	}
	assert.True(t, p.ReportedBy("a@x.com"))
	assert.False(t, p.ReportedBy("c@x.com"))

	raw, err := json.Marshal(NewProductView(p))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.NotContains(t, body, "reports")
	assert.Equal(t, float64(2), body["reportCount"])
	assert.Equal(t, "Jute bag", body["productName"])
}

func TestIdentity(t *testing.T) {
	assert.True(t, Identity{Role: RoleMunicipality}.IsMunicipality())
	assert.False(t, Identity{Role: RoleUser}.IsMunicipality())
	assert.Equal(t, "Asha Rao", User{FirstName: " Asha", LastName: "Rao "}.DisplayName())
}
