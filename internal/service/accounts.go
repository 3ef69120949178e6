package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Rishika-pasricha/Hack-Hub/internal/auth"
	"github.com/Rishika-pasricha/Hack-Hub/internal/metrics"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
	"github.com/Rishika-pasricha/Hack-Hub/internal/utils"
)

const minPasswordLength = 8

const (
	msgEmailTaken       = "Email already registered"
	msgMunicipalReset   = "Password reset is not available for municipality accounts"
	msgInvalidOTP       = "Invalid OTP"
	msgExpiredOTP       = "OTP has expired"
	msgPasswordTooShort = "Password must be at least 8 characters"
)

type Accounts struct{ Deps }

type RegisterInput struct {
	FirstName, LastName, Email, Password, Area string
}

func (s *Accounts) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	u := models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Area:      strings.TrimSpace(in.Area),
		Email:     utils.NormalizeEmail(in.Email),
	}
	if u.FirstName == "" || u.LastName == "" || u.Area == "" || u.Email == "" || in.Password == "" {
		return models.User{}, invalid("All fields are required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return models.User{}, invalid("Invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, invalid(msgPasswordTooShort)
	}

	muni, err := s.Directory.IsMunicipality(ctx, u.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("check municipality: %w", err)
	}
	if muni {
		return models.User{}, conflict(msgEmailTaken)
	}

	if u.PasswordHash, err = s.Auth.HashPassword(in.Password); err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	if err := s.Users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return models.User{}, conflict(msgEmailTaken)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	s.Log.Info("user registered", "email", u.Email)
	return u, nil
}

// LoginResult is either a user or a municipality session.
type LoginResult struct {
	Token        string
	Identity     models.Identity
	User         *models.User
	Municipality *models.Municipality
}

func (s *Accounts) Login(ctx context.Context, emailAddr, password string) (LoginResult, error) {
	emailAddr = utils.NormalizeEmail(emailAddr)

	muni, err := s.Directory.IsMunicipality(ctx, emailAddr)
	if err != nil {
		return LoginResult{}, fmt.Errorf("check municipality: %w", err)
	}

	var res LoginResult
	if muni {
		m, err := s.Directory.Get(ctx, emailAddr)
		if errors.Is(err, storage.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		if err != nil {
			return LoginResult{}, fmt.Errorf("load municipality: %w", err)
		}
		if s.Auth.CheckPassword(password, m.PasswordHash) != nil {
			return LoginResult{}, ErrInvalidCredentials
		}
		res.Municipality = &m
		res.Identity = models.Identity{Email: m.ContactEmail, Name: m.Name, Role: models.RoleMunicipality}
	} else {
		u, err := s.Users.GetUserByEmail(ctx, emailAddr)
		if errors.Is(err, storage.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		if err != nil {
			return LoginResult{}, fmt.Errorf("load user: %w", err)
		}
		if s.Auth.CheckPassword(password, u.PasswordHash) != nil {
			return LoginResult{}, ErrInvalidCredentials
		}
		res.User = &u
		res.Identity = models.Identity{Email: u.Email, Name: u.DisplayName(), Role: models.RoleUser}
	}

	if res.Token, err = s.Auth.GenerateToken(res.Identity); err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return res, nil
}

/* ---------- password reset ---------- */

// ForgotPassword issues and mails a reset code when the email belongs to a
// user. Unknown emails succeed silently.
func (s *Accounts) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = utils.NormalizeEmail(emailAddr)

	muni, err := s.Directory.IsMunicipality(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("check municipality: %w", err)
	}
	if muni {
		return forbidden(msgMunicipalReset)
	}
	if !s.Limiter.AllowAt(emailAddr, s.Now()) {
		return ErrRateLimited
	}

	if _, err := s.Users.GetUserByEmail(ctx, emailAddr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.Users.SetOTP(ctx, emailAddr, otp, s.Now().Add(auth.OTPExpiry)); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.Mailer.SendOTP(ctx, emailAddr, otp); err != nil {
		metrics.OTPMails.WithLabelValues("failed").Inc()
		s.Log.Error("send otp mail", "email", emailAddr, "err", err)
		return nil
	}
	metrics.OTPMails.WithLabelValues("sent").Inc()
	return nil
}

func (s *Accounts) checkOTP(ctx context.Context, emailAddr, otp string) error {
	if !s.Limiter.AllowAt("verify:"+emailAddr, s.Now()) {
		return ErrRateLimited
	}
	u, err := s.Users.GetUserByEmail(ctx, emailAddr)
	if errors.Is(err, storage.ErrNotFound) {
		return &OTPError{Message: msgInvalidOTP}
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !auth.CompareOTP(u.OTP, strings.TrimSpace(otp)) {
		return &OTPError{Message: msgInvalidOTP}
	}
	if u.OTPExpiry == nil || !s.Now().Before(*u.OTPExpiry) {
		return &OTPError{Message: msgExpiredOTP}
	}
	return nil
}

func (s *Accounts) VerifyOTP(ctx context.Context, emailAddr, otp string) error {
	return s.checkOTP(ctx, utils.NormalizeEmail(emailAddr), otp)
}

func (s *Accounts) ResetPassword(ctx context.Context, emailAddr, otp, newPassword string) error {
	emailAddr = utils.NormalizeEmail(emailAddr)
	if len(newPassword) < minPasswordLength {
		return invalid(msgPasswordTooShort)
	}
	if err := s.checkOTP(ctx, emailAddr, otp); err != nil {
		return err
	}
	hash, err := s.Auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.ResetPassword(ctx, emailAddr, hash, s.Now()); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.Log.Info("password reset", "email", emailAddr)
	return nil
}

/* ---------- profile ---------- */

func (s *Accounts) Profile(ctx context.Context, emailAddr string) (models.User, error) {
	u, err := s.Users.GetUserByEmail(ctx, emailAddr)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, notFound("User not found")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *Accounts) UpdateProfile(ctx context.Context, emailAddr string, p models.ProfileUpdate) (models.User, error) {
	for _, f := range []*string{p.FirstName, p.LastName, p.Area} {
		if f != nil {
			*f = strings.TrimSpace(*f)
			if *f == "" {
				return models.User{}, invalid("First name, last name and area cannot be empty")
			}
		}
	}
	u, err := s.Users.UpdateProfile(ctx, emailAddr, p, s.Now())
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, notFound("User not found")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// DeleteAccount removes the user's content, products and notifications,
// then the account itself.
func (s *Accounts) DeleteAccount(ctx context.Context, emailAddr string) error {
	if err := s.Blogs.DeleteBlogsByAuthor(ctx, emailAddr); err != nil {
		return fmt.Errorf("delete blogs: %w", err)
	}
	if err := s.Issues.DeleteIssuesByUser(ctx, emailAddr); err != nil {
		return fmt.Errorf("delete issues: %w", err)
	}
	if err := s.Products.DeleteProductsBySeller(ctx, emailAddr); err != nil {
		return fmt.Errorf("delete products: %w", err)
	}
	if err := s.Notifications.DeleteReportNotifications(ctx, emailAddr); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	if err := s.Users.DeleteUser(ctx, emailAddr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound("User not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.Log.Info("account deleted", "email", emailAddr)
	return nil
}
