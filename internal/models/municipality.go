package models

import "time"

// Municipality is a directory entry seeded from the municipality dataset.
type Municipality struct {
	ID           int64     `db:"id" json:"-"`
	District     string    `db:"district" json:"district"`
	Name         string    `db:"municipality_name" json:"municipalityName"`
	Type         string    `db:"municipality_type" json:"municipalityType"`
	AreaSqKm     float64   `db:"area_sq_km" json:"areaSqKm"`
	Population   int64     `db:"population" json:"population"`
	ContactEmail string    `db:"contact_email" json:"contactEmail"`
	ContactPhone string    `db:"contact_phone" json:"contactPhone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}
