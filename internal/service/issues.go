package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

type Issues struct{ Deps }

type IssueInput struct {
	Subject           string
	Description       string
	MunicipalityEmail string
}

// Submit files an issue with the municipality named in the input or the one
// serving the user's area.
func (s *Issues) Submit(ctx context.Context, id models.Identity, in IssueInput) (models.Issue, error) {
	if id.IsMunicipality() {
		return models.Issue{}, forbidden("Only users can submit issues")
	}
	i := models.Issue{
		Subject:     strings.TrimSpace(in.Subject),
		Description: strings.TrimSpace(in.Description),
		Status:      models.IssueOpen,
	}
	if i.Subject == "" || i.Description == "" {
		return models.Issue{}, invalid("Subject and description are required")
	}

	u, err := s.Users.GetUserByEmail(ctx, id.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Issue{}, notFound("User not found")
	}
	if err != nil {
		return models.Issue{}, fmt.Errorf("load user: %w", err)
	}
	m, err := s.owningMunicipality(ctx, in.MunicipalityEmail, u.Area)
	if err != nil {
		return models.Issue{}, err
	}
	i.UserName, i.UserEmail = u.DisplayName(), u.Email
	i.MunicipalityEmail = m.ContactEmail

	now := s.Now()
	i.CreatedAt, i.UpdatedAt = now, now
	if err := s.Issues.CreateIssue(ctx, &i); err != nil {
		return models.Issue{}, fmt.Errorf("create issue: %w", err)
	}
	return i, nil
}

func (s *Issues) Mine(ctx context.Context, userEmail string) ([]models.Issue, error) {
	list, err := s.Issues.ListIssues(ctx, models.IssueFilter{UserEmail: userEmail})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return list, nil
}

func (s *Issues) Resolve(ctx context.Context, userEmail, id string) (models.Issue, error) {
	i, err := s.Issues.ResolveIssue(ctx, id, userEmail, s.Now())
	if errors.Is(err, storage.ErrNotFound) {
		return models.Issue{}, notFound("Open issue not found for this account")
	}
	if err != nil {
		return models.Issue{}, fmt.Errorf("resolve issue: %w", err)
	}
	return i, nil
}

// ForMunicipality lists the issues filed with a municipality, optionally
// narrowed to one status.
func (s *Issues) ForMunicipality(ctx context.Context, municipalityEmail, status string) ([]models.Issue, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && status != models.IssueOpen && status != models.IssueResolved {
		return nil, invalid("Status must be open or resolved")
	}
	list, err := s.Issues.ListIssues(ctx, models.IssueFilter{MunicipalityEmail: municipalityEmail, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return list, nil
}
