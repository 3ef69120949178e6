package models

import (
	"strings"
	"time"
)

// Roles carried in access tokens.
const (
	RoleUser         = "user"
	RoleMunicipality = "municipality"
)

// User is a citizen account.
type User struct {
	ID                   string     `db:"id" json:"id"`
	FirstName            string     `db:"first_name" json:"firstName"`
	LastName             string     `db:"last_name" json:"lastName"`
	Area                 string     `db:"area" json:"area"`
	Email                string     `db:"email" json:"email"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	ProfileImage         string     `db:"profile_image" json:"profileImage,omitempty"`
	OTP                  string     `db:"otp" json:"-"`
	OTPExpiry            *time.Time `db:"otp_expiry" json:"-"`
	RemovedProductsCount int        `db:"removed_products_count" json:"removedProductsCount"`
	UploadBanUntil       *time.Time `db:"upload_ban_until" json:"uploadBanUntil,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

// DisplayName is "First Last", trimmed.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Area         *string
	ProfileImage *string
}

// Identity is the authenticated caller as carried by an access token.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (i Identity) IsMunicipality() bool { return i.Role == RoleMunicipality }
