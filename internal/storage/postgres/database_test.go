package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

func newMock(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return New(sqlx.NewDb(mockDB, "postgres")), mock
}

var userColumns = []string{
	"id", "first_name", "last_name", "area", "email", "password_hash", "profile_image",
	"otp", "otp_expiry", "removed_products_count", "upload_ban_until", "created_at", "updated_at",
}

func TestCreateUserDuplicate(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	err := d.CreateUser(context.Background(), &models.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserAssignsID(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{Email: "a@x.com"}
	require.NoError(t, d.CreateUser(context.Background(), u))
	assert.NotEmpty(t, u.ID)
}

func TestGetUserByEmail(t *testing.T) {
	d, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM users WHERE email = \\$1").
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u1", "Asha", "Rao", "Gurugram", "a@x.com", "hash", "", "", nil, 3, nil, now, now))

	u, err := d.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", u.DisplayName())
	assert.Equal(t, 3, u.RemovedProductsCount)
	assert.Nil(t, u.UploadBanUntil)
}

func TestGetUserByEmailNotFound(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery("SELECT \\* FROM users").WillReturnError(sql.ErrNoRows)

	_, err := d.GetUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetUsersByEmailsEmpty(t *testing.T) {
	d, mock := newMock(t)
	users, err := d.GetUsersByEmails(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUsersByEmailsRebinds(t *testing.T) {
	d, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM users WHERE email IN \\(\\$1, \\$2\\)").
		WithArgs("a@x.com", "b@x.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u1", "Asha", "", "", "a@x.com", "", "", "", nil, 0, nil, now, now))

	users, err := d.GetUsersByEmails(context.Background(), []string{"a@x.com", "b@x.com"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@x.com", users[0].Email)
}

func TestSetOTPUnknownUser(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec("UPDATE users SET otp").WillReturnResult(sqlmock.NewResult(0, 0))

	err := d.SetOTP(context.Background(), "nobody@x.com", "123456", time.Now())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestApplyRemovalBansOnTenth(t *testing.T) {
	d, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pending_removals SET applied_at").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "seller_email", "product_name", "created_at", "applied_at"}).
			AddRow("p1", "s@x.com", "Lamp", now, now))
	mock.ExpectQuery("UPDATE users SET removed_products_count").
		WithArgs("s@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"removed_products_count"}).AddRow(10))
	mock.ExpectExec("UPDATE users SET upload_ban_until").
		WithArgs("s@x.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO report_notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM report_notifications").
		WithArgs("s@x.com", storage.StoredNotificationLimit).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var seen int
	out, err := d.ApplyRemoval(context.Background(), "p1", func(n int) storage.RemovalEffects {
		seen = n
		until := now.Add(30 * 24 * time.Hour)
		return storage.RemovalEffects{
			BanUntil: &until,
			Notification: &models.ReportNotification{
				UserEmail: "s@x.com", Type: models.NotificationRemoval, ProductID: "p1", CreatedAt: now,
			},
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 10, seen)
	assert.True(t, out.Applied)
	assert.Equal(t, 10, out.RemovedCount)
	assert.NotNil(t, out.BanUntil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRemovalAlreadyApplied(t *testing.T) {
	d, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pending_removals SET applied_at").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT \\* FROM pending_removals WHERE product_id").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "seller_email", "product_name", "created_at", "applied_at"}).
			AddRow("p1", "s@x.com", "Lamp", now, now))
	mock.ExpectRollback()

	out, err := d.ApplyRemoval(context.Background(), "p1", func(int) storage.RemovalEffects {
		t.Fatal("decide must not run for an applied removal")
		return storage.RemovalEffects{}
	})
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, "s@x.com", out.SellerEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRemovalMissingSeller(t *testing.T) {
	d, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pending_removals SET applied_at").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "seller_email", "product_name", "created_at", "applied_at"}).
			AddRow("p1", "gone@x.com", "Lamp", now, now))
	mock.ExpectQuery("UPDATE users SET removed_products_count").WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	out, err := d.ApplyRemoval(context.Background(), "p1", func(int) storage.RemovalEffects {
		t.Fatal("decide must not run without a seller")
		return storage.RemovalEffects{}
	})
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Zero(t, out.RemovedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
