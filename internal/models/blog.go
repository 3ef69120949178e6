package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blog statuses.
const (
	BlogPending  = "pending"
	BlogApproved = "approved"
	BlogRejected = "rejected"
)

// Blog source types.
const (
	SourceUser         = "user"
	SourceMunicipality = "municipality"
)

const (
	MaxBlogMedia = 4
	// BlogTTL is how long a post lives after creation.
	BlogTTL = 30 * 24 * time.Hour
)

type Media struct {
	Type string `bson:"mediaType" json:"mediaType"`
	URL  string `bson:"mediaUrl" json:"mediaUrl"`
}

type BlogPost struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title             string             `bson:"title" json:"title"`
	Content           string             `bson:"content" json:"content"`
	AuthorName        string             `bson:"authorName" json:"authorName"`
	AuthorEmail       string             `bson:"authorEmail" json:"authorEmail"`
	MunicipalityEmail string             `bson:"municipalityEmail" json:"municipalityEmail"`
	Media             []Media            `bson:"media" json:"media"`
	Likes             []string           `bson:"likes" json:"likes"`
	SourceType        string             `bson:"sourceType" json:"sourceType"`
	Status            string             `bson:"status" json:"status"`
	ApprovedAt        *time.Time         `bson:"approvedAt" json:"approvedAt"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasBody reports whether the post carries text or media.
func (p BlogPost) HasBody() bool {
	return strings.TrimSpace(p.Content) != "" || len(p.Media) > 0
}

// LikedBy reports whether email is in the like set.
func (p BlogPost) LikedBy(email string) bool {
	for _, l := range p.Likes {
		if l == email {
			return true
		}
	}
	return false
}

// Expired reports whether the post is past its TTL at now.
func (p BlogPost) Expired(now time.Time) bool {
	return !p.CreatedAt.IsZero() && now.Sub(p.CreatedAt) >= BlogTTL
}

// BlogEdit carries the optional fields of an author edit.
type BlogEdit struct {
	Title   *string
	Content *string
	Media   *[]Media
}

// ApplyEdit changes the post in place. An approved post goes back to
// pending and loses its approval time.
func (p *BlogPost) ApplyEdit(e BlogEdit, now time.Time) {
	if e.Title != nil {
		p.Title = strings.TrimSpace(*e.Title)
	}
	if e.Content != nil {
		p.Content = strings.TrimSpace(*e.Content)
	}
	if e.Media != nil {
		p.Media = *e.Media
	}
	if p.Status == BlogApproved {
		p.Status = BlogPending
		p.ApprovedAt = nil
	}
	p.UpdatedAt = now
}

// BlogView is a post as returned to a viewer.
type BlogView struct {
	BlogPost
	LikesCount         int  `json:"likesCount"`
	LikedByCurrentUser bool `json:"likedByCurrentUser"`
}

func NewBlogView(p BlogPost, viewer string) BlogView {
	return BlogView{
		BlogPost:           p,
		LikesCount:         len(p.Likes),
		LikedByCurrentUser: viewer != "" && p.LikedBy(viewer),
	}
}

// BlogFilter selects posts; empty fields match everything.
type BlogFilter struct {
	AuthorEmail       string
	MunicipalityEmail string
	Status            string
}
