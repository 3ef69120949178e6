package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rishika-pasricha/Hack-Hub/internal/events"
	"github.com/Rishika-pasricha/Hack-Hub/internal/metrics"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/moderation"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

const msgProductNotOwned = "Product not found for this account"

type Products struct{ Deps }

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Image       string
	City        string
}

func productViews(list []models.Product) []models.ProductView {
	out := make([]models.ProductView, 0, len(list))
	for _, p := range list {
		out = append(out, models.NewProductView(p))
	}
	return out
}

// List returns products newest first, optionally in one city.
func (s *Products) List(ctx context.Context, city string) ([]models.ProductView, error) {
	list, err := s.Products.ListProducts(ctx, models.ProductFilter{City: strings.TrimSpace(city)})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return productViews(list), nil
}

func (s *Products) Mine(ctx context.Context, sellerEmail string) ([]models.ProductView, error) {
	list, err := s.Products.ListProducts(ctx, models.ProductFilter{SellerEmail: sellerEmail})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return productViews(list), nil
}

func (s *Products) Submit(ctx context.Context, id models.Identity, in ProductInput) (models.Product, error) {
	if id.IsMunicipality() {
		return models.Product{}, forbidden("Only users can sell products")
	}
	p := models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		City:        strings.TrimSpace(in.City),
		Reports:     []models.Report{},
	}
	if p.Name == "" || p.Image == "" || p.City == "" {
		return models.Product{}, invalid("Name, image and city are required")
	}
	if p.Price <= 0 {
		return models.Product{}, invalid("Price must be greater than 0")
	}

	u, err := s.Users.GetUserByEmail(ctx, id.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Product{}, notFound("User not found")
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("load seller: %w", err)
	}
	now := s.Now()
	if until, banned := moderation.BannedUntil(u, now); banned {
		return models.Product{}, &BanError{Until: until}
	}

	p.SellerName, p.SellerEmail = u.DisplayName(), u.Email
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.Products.CreateProduct(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *Products) Edit(ctx context.Context, sellerEmail, id string, e models.ProductEdit) (models.Product, error) {
	for _, f := range []*string{e.Name, e.Image, e.City} {
		if f != nil {
			*f = strings.TrimSpace(*f)
			if *f == "" {
				return models.Product{}, invalid("Name, image and city cannot be empty")
			}
		}
	}
	if e.Price != nil && *e.Price <= 0 {
		return models.Product{}, invalid("Price must be greater than 0")
	}
	p, err := s.Products.UpdateProduct(ctx, id, sellerEmail, e, s.Now())
	if errors.Is(err, storage.ErrNotFound) {
		return models.Product{}, notFound(msgProductNotOwned)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *Products) Delete(ctx context.Context, sellerEmail, id string) error {
	err := s.Products.DeleteSellerProduct(ctx, id, sellerEmail)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(msgProductNotOwned)
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

/* ---------- reports and removal ---------- */

// ReportResult is the product state after an accepted report.
type ReportResult struct {
	Removed     bool `json:"removed"`
	ReportCount int  `json:"reportCount"`
}

func reportError(err error) error {
	switch {
	case errors.Is(err, moderation.ErrInvalidReason):
		return invalid("Invalid report reason")
	case errors.Is(err, moderation.ErrOwnProduct):
		return invalid("You cannot report your own product")
	case errors.Is(err, moderation.ErrAlreadyReported):
		return conflict("You have already reported this product")
	}
	return err
}

// Report files reporter's report against a product. The seller is notified;
// on the RemovalThreshold-th report the product is removed.
func (s *Products) Report(ctx context.Context, reporter, id, reason string) (ReportResult, error) {
	reason = moderation.NormalizeReason(reason)
	if !moderation.ValidReason(reason) {
		return ReportResult{}, reportError(moderation.ErrInvalidReason)
	}

	p, err := s.Products.GetProduct(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ReportResult{}, notFound("Product not found")
	}
	if err != nil {
		return ReportResult{}, fmt.Errorf("load product: %w", err)
	}
	if err := moderation.CheckReport(p, reporter, reason); err != nil {
		return ReportResult{}, reportError(err)
	}

	now := s.Now()
	p, err = s.Products.AddReport(ctx, id, models.Report{ReporterEmail: reporter, Reason: reason, CreatedAt: now})
	if errors.Is(err, storage.ErrNotFound) {
		// lost a race: deleted, or the same reporter got in first
		cur, gerr := s.Products.GetProduct(ctx, id)
		if gerr != nil {
			return ReportResult{}, notFound("Product not found")
		}
		if cerr := moderation.CheckReport(cur, reporter, reason); cerr != nil {
			return ReportResult{}, reportError(cerr)
		}
		return ReportResult{}, fmt.Errorf("add report: %w", err)
	}
	if err != nil {
		return ReportResult{}, fmt.Errorf("add report: %w", err)
	}

	count := len(p.Reports)
	metrics.ProductReports.WithLabelValues(reason).Inc()
	if err := s.Notifications.AddReportNotification(ctx, moderation.ReportNotification(p, now)); err != nil {
		s.Log.Error("store report notification", "product", id, "seller", p.SellerEmail, "err", err)
	}
	s.Events.Publish(ctx, events.Event{
		Type:          events.ProductReported,
		ProductID:     id,
		ProductName:   p.Name,
		SellerEmail:   p.SellerEmail,
		ReporterEmail: reporter,
		Reason:        reason,
		ReportCount:   count,
		At:            now,
	})

	if !moderation.ShouldRemove(count) {
		return ReportResult{ReportCount: count}, nil
	}
	if err := s.remove(ctx, models.PendingRemoval{
		ProductID:   p.ID.Hex(),
		SellerEmail: p.SellerEmail,
		ProductName: p.Name,
		CreatedAt:   now,
	}); err != nil {
		return ReportResult{}, err
	}
	return ReportResult{Removed: true, ReportCount: count}, nil
}

// remove records the removal, deletes the product and applies the seller
// effects. A failure after RecordRemoval leaves the record for Reconcile.
func (s *Products) remove(ctx context.Context, r models.PendingRemoval) error {
	if err := s.Removals.RecordRemoval(ctx, r); err != nil {
		return fmt.Errorf("record removal: %w", err)
	}
	if err := s.Products.DeleteProduct(ctx, r.ProductID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete product: %w", err)
	}
	return s.applyRemoval(ctx, r)
}

func (s *Products) applyRemoval(ctx context.Context, r models.PendingRemoval) error {
	now := s.Now()
	out, err := s.Removals.ApplyRemoval(ctx, r.ProductID, func(count int) storage.RemovalEffects {
		n := moderation.RemovalNotification(r.ProductID, r.SellerEmail, r.ProductName, now)
		return storage.RemovalEffects{
			BanUntil:     moderation.BanAfterRemoval(count, now),
			Notification: &n,
		}
	})
	if err != nil {
		return fmt.Errorf("apply removal: %w", err)
	}
	if !out.Applied {
		return nil
	}

	metrics.ProductRemovals.Inc()
	s.Log.Info("product removed after reports",
		"product", r.ProductID, "seller", r.SellerEmail, "removed_count", out.RemovedCount)
	s.Events.Publish(ctx, events.Event{
		Type:         events.ProductRemoved,
		ProductID:    r.ProductID,
		ProductName:  r.ProductName,
		SellerEmail:  r.SellerEmail,
		RemovedCount: out.RemovedCount,
		At:           now,
	})
	if out.BanUntil != nil {
		metrics.SellerBans.Inc()
		s.Log.Info("seller upload ban", "seller", r.SellerEmail, "until", *out.BanUntil)
		s.Events.Publish(ctx, events.Event{
			Type:         events.SellerBanned,
			SellerEmail:  r.SellerEmail,
			RemovedCount: out.RemovedCount,
			BanUntil:     out.BanUntil,
			At:           now,
		})
	}
	return nil
}

// Reconcile finishes removals interrupted between recording and applying.
// It returns how many records it applied.
func (s *Products) Reconcile(ctx context.Context) (int, error) {
	pending, err := s.Removals.PendingRemovals(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending removals: %w", err)
	}
	var done int
	for _, r := range pending {
		if err := s.Products.DeleteProduct(ctx, r.ProductID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return done, fmt.Errorf("delete product %s: %w", r.ProductID, err)
		}
		if err := s.applyRemoval(ctx, r); err != nil {
			return done, err
		}
		done++
	}
	if done > 0 {
		s.Log.Info("reconciled pending removals", "count", done)
	}
	return done, nil
}
