// Package storage declares the repositories the services depend on.
//
// Accounts, municipalities, report notifications and pending removals are
// relational (see storage/postgres); blog posts, issues and products are
// documents (see storage/mongo). storage/memory implements every interface
// in process.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
)

var (
	// ErrNotFound is returned when no record matches, including when a
	// conditional update finds its preconditions unmet.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// StoredNotificationLimit caps the stored report notifications per user.
const StoredNotificationLimit = 200

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error)
	UpdateProfile(ctx context.Context, email string, p models.ProfileUpdate, now time.Time) (models.User, error)
	SetOTP(ctx context.Context, email, otp string, expiry time.Time) error
	ResetPassword(ctx context.Context, email, passwordHash string, now time.Time) error
	DeleteUser(ctx context.Context, email string) error
}

type MunicipalityStore interface {
	UpsertMunicipality(ctx context.Context, m models.Municipality) error
	// ListMunicipalities returns every municipality in store order.
	ListMunicipalities(ctx context.Context) ([]models.Municipality, error)
	GetMunicipalityByEmail(ctx context.Context, email string) (models.Municipality, error)
	GetMunicipalitiesByEmails(ctx context.Context, emails []string) ([]models.Municipality, error)
	ListMunicipalityEmails(ctx context.Context) ([]string, error)
}

type NotificationStore interface {
	// AddReportNotification stores n and keeps only the newest
	// StoredNotificationLimit entries for its user.
	AddReportNotification(ctx context.Context, n models.ReportNotification) error
	// ListReportNotifications returns the user's notifications newest first.
	ListReportNotifications(ctx context.Context, email string) ([]models.ReportNotification, error)
	PruneReportNotifications(ctx context.Context, email string, before time.Time) error
	DeleteReportNotifications(ctx context.Context, email string) error
}

// RemovalEffects are the seller changes applied together with a removal.
type RemovalEffects struct {
	BanUntil     *time.Time
	Notification *models.ReportNotification
}

// RemovalOutcome describes an applied removal.
type RemovalOutcome struct {
	Applied     bool
	SellerEmail string
	ProductName string
	// RemovedCount is the seller's counter after the increment; zero when
	// the seller account no longer exists.
	RemovedCount int
	BanUntil     *time.Time
}

type RemovalStore interface {
	// RecordRemoval stores r unless a record for the product exists.
	RecordRemoval(ctx context.Context, r models.PendingRemoval) error
	PendingRemovals(ctx context.Context) ([]models.PendingRemoval, error)
	// ApplyRemoval marks the record applied, increments the seller's removal
	// counter and persists the effects returned by decide, atomically. A
	// record already applied yields an outcome with Applied false.
	ApplyRemoval(ctx context.Context, productID string, decide func(removedCount int) RemovalEffects) (RemovalOutcome, error)
}

type BlogStore interface {
	CreateBlog(ctx context.Context, p *models.BlogPost) error
	GetBlog(ctx context.Context, id string) (models.BlogPost, error)
	// ListBlogs returns matching posts newest first.
	ListBlogs(ctx context.Context, f models.BlogFilter) ([]models.BlogPost, error)
	// UpdateBlogContent writes the title, content and media of p if the post
	// still belongs to its author. An approved post goes back to pending.
	// Likes are not touched.
	UpdateBlogContent(ctx context.Context, p models.BlogPost, now time.Time) (models.BlogPost, error)
	// TransitionBlog moves a post owned by municipalityEmail from one status
	// to another.
	TransitionBlog(ctx context.Context, id, municipalityEmail, from, to string, now time.Time) (models.BlogPost, error)
	// ToggleLike adds or removes email from an approved post's likes.
	ToggleLike(ctx context.Context, id, email string, now time.Time) (models.BlogPost, bool, error)
	DeleteBlog(ctx context.Context, id, authorEmail string) error
	DeleteBlogsByAuthor(ctx context.Context, authorEmail string) error
}

type IssueStore interface {
	CreateIssue(ctx context.Context, i *models.Issue) error
	ListIssues(ctx context.Context, f models.IssueFilter) ([]models.Issue, error)
	// ResolveIssue moves an open issue owned by userEmail to resolved.
	ResolveIssue(ctx context.Context, id, userEmail string, now time.Time) (models.Issue, error)
	DeleteIssuesByUser(ctx context.Context, userEmail string) error
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id, sellerEmail string, e models.ProductEdit, now time.Time) (models.Product, error)
	// AddReport appends r unless the reporter is the seller or already
	// reported; ErrNotFound otherwise.
	AddReport(ctx context.Context, id string, r models.Report) (models.Product, error)
	// DeleteProduct removes the product regardless of owner.
	DeleteProduct(ctx context.Context, id string) error
	DeleteSellerProduct(ctx context.Context, id, sellerEmail string) error
	DeleteProductsBySeller(ctx context.Context, sellerEmail string) error
}
