package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rishika-pasricha/Hack-Hub/internal/events"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
	"github.com/Rishika-pasricha/Hack-Hub/internal/utils"
)

const (
	msgBlogBodyRequired = "Add text content or attach media to create a post"
	msgBlogNotFound     = "Blog post not found"
	msgBlogNotOwned     = "Blog post not found for this account"
	msgNoMunicipality   = "No municipality found for your area"
)

type Blogs struct{ Deps }

type BlogInput struct {
	Title             string
	Content           string
	Media             []models.Media
	MunicipalityEmail string
}

func validateMedia(media []models.Media) error {
	if len(media) > models.MaxBlogMedia {
		return invalid(fmt.Sprintf("A post can have at most %d media items", models.MaxBlogMedia))
	}
	for _, m := range media {
		if m.Type != "image" && m.Type != "video" {
			return invalid("Media type must be image or video")
		}
		if !strings.HasPrefix(m.URL, "data:") {
			return invalid("Media must be a data URL")
		}
	}
	return nil
}

// owningMunicipality resolves the municipality a user's submission goes to:
// the explicit email when given, otherwise the one serving the user's area.
func (d Deps) owningMunicipality(ctx context.Context, explicit, area string) (models.Municipality, error) {
	if explicit = utils.NormalizeEmail(explicit); explicit != "" {
		m, err := d.Directory.Get(ctx, explicit)
		if errors.Is(err, storage.ErrNotFound) {
			return models.Municipality{}, invalid("Municipality not found")
		}
		return m, err
	}
	m, err := d.Directory.ResolveArea(ctx, area)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Municipality{}, invalid(msgNoMunicipality)
	}
	return m, err
}

func (s *Blogs) Submit(ctx context.Context, id models.Identity, in BlogInput) (models.BlogPost, error) {
	p := models.BlogPost{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
		Media:   in.Media,
		Status:  models.BlogPending,
	}
	if p.Title == "" {
		return models.BlogPost{}, invalid("Title is required")
	}
	if !p.HasBody() {
		return models.BlogPost{}, invalid(msgBlogBodyRequired)
	}
	if err := validateMedia(p.Media); err != nil {
		return models.BlogPost{}, err
	}

	if id.IsMunicipality() {
		p.AuthorName, p.AuthorEmail = id.Name, id.Email
		p.MunicipalityEmail = id.Email
		p.SourceType = models.SourceMunicipality
	} else {
		u, err := s.Users.GetUserByEmail(ctx, id.Email)
		if errors.Is(err, storage.ErrNotFound) {
			return models.BlogPost{}, notFound("User not found")
		}
		if err != nil {
			return models.BlogPost{}, fmt.Errorf("load author: %w", err)
		}
		m, err := s.owningMunicipality(ctx, in.MunicipalityEmail, u.Area)
		if err != nil {
			return models.BlogPost{}, err
		}
		p.AuthorName, p.AuthorEmail = u.DisplayName(), u.Email
		p.MunicipalityEmail = m.ContactEmail
		p.SourceType = models.SourceUser
	}

	now := s.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.Blogs.CreateBlog(ctx, &p); err != nil {
		return models.BlogPost{}, fmt.Errorf("create blog: %w", err)
	}
	return p, nil
}

func views(posts []models.BlogPost, viewer string) []models.BlogView {
	out := make([]models.BlogView, 0, len(posts))
	for _, p := range posts {
		out = append(out, models.NewBlogView(p, viewer))
	}
	return out
}

// List returns approved posts, optionally for one municipality.
func (s *Blogs) List(ctx context.Context, municipalityEmail, viewer string) ([]models.BlogView, error) {
	posts, err := s.Blogs.ListBlogs(ctx, models.BlogFilter{
		MunicipalityEmail: utils.NormalizeEmail(municipalityEmail),
		Status:            models.BlogApproved,
	})
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return views(posts, viewer), nil
}

func (s *Blogs) Mine(ctx context.Context, authorEmail string) ([]models.BlogView, error) {
	posts, err := s.Blogs.ListBlogs(ctx, models.BlogFilter{AuthorEmail: authorEmail})
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return views(posts, authorEmail), nil
}

func (s *Blogs) Edit(ctx context.Context, authorEmail, id string, e models.BlogEdit) (models.BlogPost, error) {
	p, err := s.Blogs.GetBlog(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && p.AuthorEmail != authorEmail) {
		return models.BlogPost{}, notFound(msgBlogNotOwned)
	}
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("load blog: %w", err)
	}

	now := s.Now()
	p.ApplyEdit(e, now)
	if p.Title == "" {
		return models.BlogPost{}, invalid("Title is required")
	}
	if !p.HasBody() {
		return models.BlogPost{}, invalid(msgBlogBodyRequired)
	}
	if err := validateMedia(p.Media); err != nil {
		return models.BlogPost{}, err
	}

	saved, err := s.Blogs.UpdateBlogContent(ctx, p, now)
	if errors.Is(err, storage.ErrNotFound) {
		return models.BlogPost{}, notFound(msgBlogNotOwned)
	}
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("update blog: %w", err)
	}
	return saved, nil
}

func (s *Blogs) Delete(ctx context.Context, authorEmail, id string) error {
	err := s.Blogs.DeleteBlog(ctx, id, authorEmail)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(msgBlogNotOwned)
	}
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	return nil
}

// LikeResult is the caller's like state after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

func (s *Blogs) ToggleLike(ctx context.Context, email, id string) (LikeResult, error) {
	p, liked, err := s.Blogs.ToggleLike(ctx, id, email, s.Now())
	if errors.Is(err, storage.ErrNotFound) {
		return LikeResult{}, notFound(msgBlogNotFound)
	}
	if err != nil {
		return LikeResult{}, fmt.Errorf("toggle like: %w", err)
	}
	return LikeResult{Liked: liked, LikesCount: len(p.Likes)}, nil
}

/* ---------- municipality moderation ---------- */

func (s *Blogs) Pending(ctx context.Context, municipalityEmail string) ([]models.BlogView, error) {
	posts, err := s.Blogs.ListBlogs(ctx, models.BlogFilter{
		MunicipalityEmail: municipalityEmail,
		Status:            models.BlogPending,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending blogs: %w", err)
	}
	return views(posts, ""), nil
}

// Approve moves a pending post owned by the municipality to approved.
func (s *Blogs) Approve(ctx context.Context, municipalityEmail, id string) (models.BlogPost, error) {
	p, err := s.transition(ctx, municipalityEmail, id, models.BlogApproved)
	if err != nil {
		return p, err
	}
	s.Events.Publish(ctx, events.Event{
		Type:              events.BlogApproved,
		BlogID:            p.ID.Hex(),
		AuthorEmail:       p.AuthorEmail,
		MunicipalityEmail: p.MunicipalityEmail,
		At:                s.Now(),
	})
	return p, nil
}

func (s *Blogs) Reject(ctx context.Context, municipalityEmail, id string) (models.BlogPost, error) {
	return s.transition(ctx, municipalityEmail, id, models.BlogRejected)
}

func (s *Blogs) transition(ctx context.Context, municipalityEmail, id, to string) (models.BlogPost, error) {
	p, err := s.Blogs.TransitionBlog(ctx, id, municipalityEmail, models.BlogPending, to, s.Now())
	if errors.Is(err, storage.ErrNotFound) {
		return models.BlogPost{}, notFound("Pending blog post not found for this municipality")
	}
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("%s blog: %w", to, err)
	}
	return p, nil
}
