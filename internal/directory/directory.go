package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
	"github.com/Rishika-pasricha/Hack-Hub/internal/utils"
)

// PasswordHasher hashes municipality admin credentials on import.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// SyncResult summarises one dataset import.
type SyncResult struct {
	Upserts int `json:"upserts"`
	Skipped int `json:"skipped"`
}

// Directory answers municipality lookups over a store and an email cache.
type Directory struct {
	store  storage.MunicipalityStore
	cache  EmailCache
	hasher PasswordHasher
	log    *slog.Logger
	now    func() time.Time
}

func New(store storage.MunicipalityStore, cache EmailCache, hasher PasswordHasher, log *slog.Logger) *Directory {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Directory{store: store, cache: cache, hasher: hasher, log: log, now: time.Now}
}

// ResolveArea maps a free-text area or district to one municipality.
func (d *Directory) ResolveArea(ctx context.Context, area string) (models.Municipality, error) {
	list, err := d.store.ListMunicipalities(ctx)
	if err != nil {
		return models.Municipality{}, fmt.Errorf("list municipalities: %w", err)
	}
	m, ok := Resolve(list, area)
	if !ok {
		return models.Municipality{}, storage.ErrNotFound
	}
	return m, nil
}

// Get returns the municipality with the given contact email.
func (d *Directory) Get(ctx context.Context, email string) (models.Municipality, error) {
	return d.store.GetMunicipalityByEmail(ctx, utils.NormalizeEmail(email))
}

// Municipalities returns the municipalities among emails.
func (d *Directory) Municipalities(ctx context.Context, emails []string) ([]models.Municipality, error) {
	return d.store.GetMunicipalitiesByEmails(ctx, emails)
}

// IsMunicipality reports whether email belongs to a municipality. The cache
// is filled from the store on first use.
func (d *Directory) IsMunicipality(ctx context.Context, email string) (bool, error) {
	email = utils.NormalizeEmail(email)
	found, loaded, err := d.cache.Contains(ctx, email)
	if err != nil {
		d.log.Warn("municipality cache unavailable, reading store", "err", err)
	} else if loaded {
		return found, nil
	}

	emails, err := d.store.ListMunicipalityEmails(ctx)
	if err != nil {
		return false, fmt.Errorf("list municipality emails: %w", err)
	}
	if err := d.cache.Replace(ctx, emails); err != nil {
		d.log.Warn("refill municipality cache", "err", err)
	}
	for _, e := range emails {
		if e == email {
			return true, nil
		}
	}
	return false, nil
}

// Refresh rebuilds the email cache from the store.
func (d *Directory) Refresh(ctx context.Context) error {
	emails, err := d.store.ListMunicipalityEmails(ctx)
	if err != nil {
		return fmt.Errorf("list municipality emails: %w", err)
	}
	return d.cache.Replace(ctx, emails)
}

// Sync upserts every usable dataset row keyed by contact email and rebuilds
// the cache.
func (d *Directory) Sync(ctx context.Context, r io.Reader) (SyncResult, error) {
	rows, skipped, err := ParseDataset(r)
	if err != nil {
		return SyncResult{}, err
	}

	now := d.now()
	res := SyncResult{Skipped: skipped}
	for _, row := range rows {
		m := row.Municipality
		m.CreatedAt, m.UpdatedAt = now, now
		if row.AdminPassword != "" {
			if d.hasher == nil {
				return res, errors.New("admin password present but no hasher configured")
			}
			if m.PasswordHash, err = d.hasher.HashPassword(row.AdminPassword); err != nil {
				return res, fmt.Errorf("hash admin password for %s: %w", m.ContactEmail, err)
			}
		}
		if err := d.store.UpsertMunicipality(ctx, m); err != nil {
			return res, fmt.Errorf("upsert %s: %w", m.ContactEmail, err)
		}
		res.Upserts++
	}

	if err := d.Refresh(ctx); err != nil {
		return res, fmt.Errorf("refresh cache: %w", err)
	}
	d.log.Info("municipality dataset synced", "upserts", res.Upserts, "skipped", res.Skipped)
	return res, nil
}

// SyncFile runs Sync over the dataset at path.
func (d *Directory) SyncFile(ctx context.Context, path string) (SyncResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return SyncResult{}, err
	}
	defer f.Close()
	return d.Sync(ctx, f)
}
