// Package postgres stores accounts, municipalities, report notifications
// and pending removals in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

// Database provides relational operations for the application
type Database struct {
	db *sqlx.DB
}

var (
	_ storage.UserStore         = (*Database)(nil)
	_ storage.MunicipalityStore = (*Database)(nil)
	_ storage.NotificationStore = (*Database)(nil)
	_ storage.RemovalStore      = (*Database)(nil)
)

// New wraps an open connection
func New(db *sqlx.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

/* ================================================================
   USERS
================================================================ */

// CreateUser inserts a new account
func (d *Database) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, area, email, password_hash, profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.FirstName, u.LastName, u.Area, u.Email, u.PasswordHash, u.ProfileImage, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// GetUserByEmail gets a user by email
func (d *Database) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := d.db.GetContext(ctx, &u, "SELECT * FROM users WHERE email = $1", email)
	return u, notFound(err)
}

// GetUsersByEmails returns the users that exist among emails
func (d *Database) GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM users WHERE email IN (?)", emails)
	if err != nil {
		return nil, err
	}
	var users []models.User
	err = d.db.SelectContext(ctx, &users, d.db.Rebind(query), args...)
	return users, err
}

// UpdateProfile changes the non-nil profile fields
func (d *Database) UpdateProfile(ctx context.Context, email string, p models.ProfileUpdate, now time.Time) (models.User, error) {
	var u models.User
	err := d.db.GetContext(ctx, &u, `
		UPDATE users SET
			first_name    = COALESCE($2, first_name),
			last_name     = COALESCE($3, last_name),
			area          = COALESCE($4, area),
			profile_image = COALESCE($5, profile_image),
			updated_at    = $6
		WHERE email = $1
		RETURNING *
	`, email, p.FirstName, p.LastName, p.Area, p.ProfileImage, now)
	return u, notFound(err)
}

// SetOTP stores a password reset code
func (d *Database) SetOTP(ctx context.Context, email, otp string, expiry time.Time) error {
	res, err := d.db.ExecContext(ctx, "UPDATE users SET otp = $2, otp_expiry = $3 WHERE email = $1", email, otp, expiry)
	return affected(res, err)
}

// ResetPassword stores a new hash and clears the reset code
func (d *Database) ResetPassword(ctx context.Context, email, passwordHash string, now time.Time) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, otp = '', otp_expiry = NULL, updated_at = $3
		WHERE email = $1
	`, email, passwordHash, now)
	return affected(res, err)
}

// DeleteUser removes the account row
func (d *Database) DeleteUser(ctx context.Context, email string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM users WHERE email = $1", email)
	return affected(res, err)
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

/* ================================================================
   MUNICIPALITIES
================================================================ */

// UpsertMunicipality inserts or refreshes a row keyed by contact email. An
// empty password hash keeps the stored credential.
func (d *Database) UpsertMunicipality(ctx context.Context, m models.Municipality) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO municipalities
			(district, municipality_name, municipality_type, area_sq_km, population,
			 contact_email, contact_phone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (contact_email) DO UPDATE SET
			district          = EXCLUDED.district,
			municipality_name = EXCLUDED.municipality_name,
			municipality_type = EXCLUDED.municipality_type,
			area_sq_km        = EXCLUDED.area_sq_km,
			population        = EXCLUDED.population,
			contact_phone     = EXCLUDED.contact_phone,
			password_hash     = CASE WHEN EXCLUDED.password_hash <> ''
			                         THEN EXCLUDED.password_hash
			                         ELSE municipalities.password_hash END,
			updated_at        = EXCLUDED.updated_at
	`, m.District, m.Name, m.Type, m.AreaSqKm, m.Population, m.ContactEmail, m.ContactPhone, m.PasswordHash, m.UpdatedAt)
	return err
}

// ListMunicipalities returns all rows in insertion order
func (d *Database) ListMunicipalities(ctx context.Context) ([]models.Municipality, error) {
	var ms []models.Municipality
	err := d.db.SelectContext(ctx, &ms, "SELECT * FROM municipalities ORDER BY id")
	return ms, err
}

func (d *Database) GetMunicipalityByEmail(ctx context.Context, email string) (models.Municipality, error) {
	var m models.Municipality
	err := d.db.GetContext(ctx, &m, "SELECT * FROM municipalities WHERE contact_email = $1", email)
	return m, notFound(err)
}

func (d *Database) GetMunicipalitiesByEmails(ctx context.Context, emails []string) ([]models.Municipality, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM municipalities WHERE contact_email IN (?) ORDER BY id", emails)
	if err != nil {
		return nil, err
	}
	var ms []models.Municipality
	err = d.db.SelectContext(ctx, &ms, d.db.Rebind(query), args...)
	return ms, err
}

func (d *Database) ListMunicipalityEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := d.db.SelectContext(ctx, &emails, "SELECT contact_email FROM municipalities ORDER BY id")
	return emails, err
}

/* ================================================================
   REPORT NOTIFICATIONS
================================================================ */

func (d *Database) AddReportNotification(ctx context.Context, n models.ReportNotification) error {
	return insertNotification(ctx, d.db, n)
}

func insertNotification(ctx context.Context, ex sqlx.ExecerContext, n models.ReportNotification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if _, err := ex.ExecContext(ctx, `
		INSERT INTO report_notifications (id, user_email, type, product_id, product_name, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserEmail, n.Type, n.ProductID, n.ProductName, n.Message, n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if _, err := ex.ExecContext(ctx, `
		DELETE FROM report_notifications
		WHERE user_email = $1 AND id IN (
			SELECT id FROM report_notifications
			WHERE user_email = $1
			ORDER BY created_at DESC
			OFFSET $2
		)
	`, n.UserEmail, storage.StoredNotificationLimit); err != nil {
		return fmt.Errorf("cap notifications: %w", err)
	}
	return nil
}

func (d *Database) ListReportNotifications(ctx context.Context, email string) ([]models.ReportNotification, error) {
	var ns []models.ReportNotification
	err := d.db.SelectContext(ctx, &ns, `
		SELECT * FROM report_notifications WHERE user_email = $1 ORDER BY created_at DESC
	`, email)
	return ns, err
}

func (d *Database) PruneReportNotifications(ctx context.Context, email string, before time.Time) error {
	_, err := d.db.ExecContext(ctx,
		"DELETE FROM report_notifications WHERE user_email = $1 AND created_at < $2", email, before)
	return err
}

func (d *Database) DeleteReportNotifications(ctx context.Context, email string) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM report_notifications WHERE user_email = $1", email)
	return err
}

/* ================================================================
   PENDING REMOVALS
================================================================ */

func (d *Database) RecordRemoval(ctx context.Context, r models.PendingRemoval) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO pending_removals (product_id, seller_email, product_name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO NOTHING
	`, r.ProductID, r.SellerEmail, r.ProductName, r.CreatedAt)
	return err
}

func (d *Database) PendingRemovals(ctx context.Context) ([]models.PendingRemoval, error) {
	var rs []models.PendingRemoval
	err := d.db.SelectContext(ctx, &rs,
		"SELECT * FROM pending_removals WHERE applied_at IS NULL ORDER BY created_at")
	return rs, err
}

func (d *Database) ApplyRemoval(ctx context.Context, productID string, decide func(int) storage.RemovalEffects) (storage.RemovalOutcome, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return storage.RemovalOutcome{}, err
	}
	defer tx.Rollback()

	var r models.PendingRemoval
	err = tx.GetContext(ctx, &r, `
		UPDATE pending_removals SET applied_at = NOW()
		WHERE product_id = $1 AND applied_at IS NULL
		RETURNING *
	`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		if err := tx.GetContext(ctx, &r, "SELECT * FROM pending_removals WHERE product_id = $1", productID); err != nil {
			return storage.RemovalOutcome{}, notFound(err)
		}
		return storage.RemovalOutcome{SellerEmail: r.SellerEmail, ProductName: r.ProductName}, nil
	}
	if err != nil {
		return storage.RemovalOutcome{}, err
	}
	out := storage.RemovalOutcome{Applied: true, SellerEmail: r.SellerEmail, ProductName: r.ProductName}

	var count int
	err = tx.GetContext(ctx, &count, `
		UPDATE users SET removed_products_count = removed_products_count + 1
		WHERE email = $1
		RETURNING removed_products_count
	`, r.SellerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return out, tx.Commit()
	}
	if err != nil {
		return storage.RemovalOutcome{}, err
	}
	out.RemovedCount = count

	effects := decide(count)
	if effects.BanUntil != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET upload_ban_until = $2 WHERE email = $1", r.SellerEmail, *effects.BanUntil); err != nil {
			return storage.RemovalOutcome{}, err
		}
		out.BanUntil = effects.BanUntil
	}
	if effects.Notification != nil {
		if err := insertNotification(ctx, tx, *effects.Notification); err != nil {
			return storage.RemovalOutcome{}, err
		}
	}
	return out, tx.Commit()
}
