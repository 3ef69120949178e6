// Package service implements the account, content, marketplace and
// notification use cases on top of the repositories.
package service

import (
	"log/slog"
	"time"

	"github.com/Rishika-pasricha/Hack-Hub/internal/auth"
	"github.com/Rishika-pasricha/Hack-Hub/internal/config"
	"github.com/Rishika-pasricha/Hack-Hub/internal/directory"
	"github.com/Rishika-pasricha/Hack-Hub/internal/email"
	"github.com/Rishika-pasricha/Hack-Hub/internal/events"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Users         storage.UserStore
	Notifications storage.NotificationStore
	Removals      storage.RemovalStore
	Blogs         storage.BlogStore
	Issues        storage.IssueStore
	Products      storage.ProductStore
	Directory     *directory.Directory
	Auth          *auth.Service
	Mailer        email.OTPSender
	Limiter       *auth.OTPLimiter
	Events        events.Publisher
	Log           *slog.Logger
	Now           func() time.Time
}

// Services groups the use cases handed to the HTTP layer.
type Services struct {
	Accounts      *Accounts
	Blogs         *Blogs
	Issues        *Issues
	Products      *Products
	Notifications *Notifications
	Directory     *directory.Directory
}

func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Limiter == nil {
		d.Limiter = auth.NewOTPLimiter(0, 0)
	}
	if d.Mailer == nil {
		d.Mailer = email.NewMailer(config.SMTPConfig{}, nil, d.Log)
	}
	return &Services{
		Accounts:      &Accounts{d},
		Blogs:         &Blogs{d},
		Issues:        &Issues{d},
		Products:      &Products{d},
		Notifications: &Notifications{d},
		Directory:     d.Directory,
	}
}
