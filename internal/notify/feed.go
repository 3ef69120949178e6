// Package notify builds the notification feed from blog likes and stored
// report notifications.
package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/utils"
)

const (
	// Window is how far back the feed reaches.
	Window = 15 * 24 * time.Hour
	// Limit caps the merged feed.
	Limit = 100
)

// Cutoff is the oldest timestamp still shown at now.
func Cutoff(now time.Time) time.Time {
	return now.Add(-Window)
}

// Likers returns the distinct emails, other than owner, that liked posts.
func Likers(posts []models.BlogPost, owner string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range posts {
		for _, l := range p.Likes {
			if l == owner || seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// DisplayName returns the known name for email, or its local part.
func DisplayName(email string, names map[string]string) string {
	if n := names[email]; n != "" {
		return n
	}
	return utils.GetLocalPart(email)
}

func likeTime(p models.BlogPost) time.Time {
	if !p.UpdatedAt.IsZero() {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// Feed merges one like entry per (post, liker), excluding self-likes, with
// the stored report notifications. Entries older than the window are
// dropped, the rest sorted newest first and capped at Limit.
func Feed(owner string, posts []models.BlogPost, reports []models.ReportNotification, names map[string]string, now time.Time) []models.Notification {
	cutoff := Cutoff(now)
	feed := make([]models.Notification, 0)

	for _, p := range posts {
		at := likeTime(p)
		if at.Before(cutoff) {
			continue
		}
		id := p.ID.Hex()
		for _, liker := range p.Likes {
			if liker == owner {
				continue
			}
			name := DisplayName(liker, names)
			feed = append(feed, models.Notification{
				ID:         id + ":" + liker,
				Type:       models.NotificationLike,
				BlogID:     id,
				BlogTitle:  p.Title,
				ActorEmail: liker,
				ActorName:  name,
				Message:    fmt.Sprintf("%s liked your post %q", name, p.Title),
				CreatedAt:  at,
			})
		}
	}

	for _, r := range reports {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		feed = append(feed, models.Notification{
			ID:          r.ID,
			Type:        r.Type,
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			Message:     r.Message,
			CreatedAt:   r.CreatedAt,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].CreatedAt.After(feed[j].CreatedAt) })
	if len(feed) > Limit {
		feed = feed[:Limit]
	}
	return feed
}
