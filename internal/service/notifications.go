package service

import (
	"context"
	"fmt"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/notify"
)

type Notifications struct{ Deps }

// Feed returns the caller's like and report notifications, newest first.
// Stored report notifications older than the feed window are pruned.
func (s *Notifications) Feed(ctx context.Context, owner string) ([]models.Notification, error) {
	now := s.Now()

	posts, err := s.Blogs.ListBlogs(ctx, models.BlogFilter{AuthorEmail: owner})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if err := s.Notifications.PruneReportNotifications(ctx, owner, notify.Cutoff(now)); err != nil {
		s.Log.Warn("prune report notifications", "email", owner, "err", err)
	}
	reports, err := s.Notifications.ListReportNotifications(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list report notifications: %w", err)
	}

	names, err := s.likerNames(ctx, notify.Likers(posts, owner))
	if err != nil {
		return nil, err
	}
	return notify.Feed(owner, posts, reports, names, now), nil
}

// likerNames maps each email to a user's display name, falling back to a
// municipality's name.
func (s *Notifications) likerNames(ctx context.Context, emails []string) (map[string]string, error) {
	names := make(map[string]string, len(emails))
	if len(emails) == 0 {
		return names, nil
	}
	users, err := s.Users.GetUsersByEmails(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("load likers: %w", err)
	}
	for _, u := range users {
		names[u.Email] = u.DisplayName()
	}

	var rest []string
	for _, e := range emails {
		if _, ok := names[e]; !ok {
			rest = append(rest, e)
		}
	}
	if len(rest) == 0 {
		return names, nil
	}
	munis, err := s.Directory.Municipalities(ctx, rest)
	if err != nil {
		return nil, fmt.Errorf("load liker municipalities: %w", err)
	}
	for _, m := range munis {
		names[m.ContactEmail] = m.Name
	}
	return names, nil
}
