// Package memory keeps every repository in process. It backs the
// "memory" storage mode and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

type Store struct {
	mu sync.Mutex

	users          map[string]models.User
	municipalities []models.Municipality
	notifications  map[string][]models.ReportNotification // newest first
	removals       map[string]models.PendingRemoval
	removalOrder   []string

	blogs    []models.BlogPost
	issues   []models.Issue
	products []models.Product

	nextMunicipalityID int64
	now                func() time.Time
}

var (
	_ storage.UserStore         = (*Store)(nil)
	_ storage.MunicipalityStore = (*Store)(nil)
	_ storage.NotificationStore = (*Store)(nil)
	_ storage.RemovalStore      = (*Store)(nil)
	_ storage.BlogStore         = (*Store)(nil)
	_ storage.IssueStore        = (*Store)(nil)
	_ storage.ProductStore      = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:         map[string]models.User{},
		notifications: map[string][]models.ReportNotification{},
		removals:      map[string]models.PendingRemoval{},
		now:           time.Now,
	}
}

// SetClock replaces the clock used for blog expiry.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

/* ================================================================
   USERS
================================================================ */

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return storage.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	s.users[u.Email] = *u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUsersByEmails(_ context.Context, emails []string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, e := range emails {
		if u, ok := s.users[e]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) UpdateProfile(_ context.Context, email string, p models.ProfileUpdate, now time.Time) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Area != nil {
		u.Area = *p.Area
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	u.UpdatedAt = now
	s.users[email] = u
	return u, nil
}

func (s *Store) SetOTP(_ context.Context, email, otp string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return storage.ErrNotFound
	}
	u.OTP = otp
	u.OTPExpiry = &expiry
	s.users[email] = u
	return nil
}

func (s *Store) ResetPassword(_ context.Context, email, passwordHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.OTP = ""
	u.OTPExpiry = nil
	u.UpdatedAt = now
	s.users[email] = u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, email)
	return nil
}

/* ================================================================
   MUNICIPALITIES
================================================================ */

func (s *Store) UpsertMunicipality(_ context.Context, m models.Municipality) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.municipalities {
		if existing.ContactEmail == m.ContactEmail {
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
			if m.PasswordHash == "" {
				m.PasswordHash = existing.PasswordHash
			}
			s.municipalities[i] = m
			return nil
		}
	}
	s.nextMunicipalityID++
	m.ID = s.nextMunicipalityID
	s.municipalities = append(s.municipalities, m)
	return nil
}

func (s *Store) ListMunicipalities(context.Context) ([]models.Municipality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Municipality(nil), s.municipalities...), nil
}

func (s *Store) GetMunicipalityByEmail(_ context.Context, email string) (models.Municipality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.municipalities {
		if m.ContactEmail == email {
			return m, nil
		}
	}
	return models.Municipality{}, storage.ErrNotFound
}

func (s *Store) GetMunicipalitiesByEmails(_ context.Context, emails []string) ([]models.Municipality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, e := range emails {
		want[e] = true
	}
	var out []models.Municipality
	for _, m := range s.municipalities {
		if want[m.ContactEmail] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ListMunicipalityEmails(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.municipalities))
	for _, m := range s.municipalities {
		out = append(out, m.ContactEmail)
	}
	return out, nil
}

/* ================================================================
   REPORT NOTIFICATIONS
================================================================ */

func (s *Store) AddReportNotification(_ context.Context, n models.ReportNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addNotificationLocked(n)
	return nil
}

func (s *Store) addNotificationLocked(n models.ReportNotification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	list := append([]models.ReportNotification{n}, s.notifications[n.UserEmail]...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > storage.StoredNotificationLimit {
		list = list[:storage.StoredNotificationLimit]
	}
	s.notifications[n.UserEmail] = list
}

func (s *Store) ListReportNotifications(_ context.Context, email string) ([]models.ReportNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ReportNotification(nil), s.notifications[email]...), nil
}

func (s *Store) PruneReportNotifications(_ context.Context, email string, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.ReportNotification
	for _, n := range s.notifications[email] {
		if !n.CreatedAt.Before(before) {
			kept = append(kept, n)
		}
	}
	s.notifications[email] = kept
	return nil
}

func (s *Store) DeleteReportNotifications(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, email)
	return nil
}

/* ================================================================
   PENDING REMOVALS
================================================================ */

func (s *Store) RecordRemoval(_ context.Context, r models.PendingRemoval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.removals[r.ProductID]; ok {
		return nil
	}
	s.removals[r.ProductID] = r
	s.removalOrder = append(s.removalOrder, r.ProductID)
	return nil
}

func (s *Store) PendingRemovals(context.Context) ([]models.PendingRemoval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PendingRemoval
	for _, id := range s.removalOrder {
		if r := s.removals[id]; r.AppliedAt == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ApplyRemoval(_ context.Context, productID string, decide func(int) storage.RemovalEffects) (storage.RemovalOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.removals[productID]
	if !ok {
		return storage.RemovalOutcome{}, storage.ErrNotFound
	}
	out := storage.RemovalOutcome{SellerEmail: r.SellerEmail, ProductName: r.ProductName}
	if r.AppliedAt != nil {
		return out, nil
	}
	now := s.now()
	r.AppliedAt = &now
	s.removals[productID] = r
	out.Applied = true

	u, ok := s.users[r.SellerEmail]
	if !ok {
		return out, nil
	}
	u.RemovedProductsCount++
	out.RemovedCount = u.RemovedProductsCount
	effects := decide(u.RemovedProductsCount)
	if effects.BanUntil != nil {
		u.UploadBanUntil = effects.BanUntil
		out.BanUntil = effects.BanUntil
	}
	s.users[r.SellerEmail] = u
	if effects.Notification != nil {
		s.addNotificationLocked(*effects.Notification)
	}
	return out, nil
}

/* ================================================================
   BLOG POSTS
================================================================ */

func (s *Store) CreateBlog(_ context.Context, p *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.blogs = append(s.blogs, clonePost(*p))
	return nil
}

// blogIndexLocked finds a live post; expired posts behave as deleted.
func (s *Store) blogIndexLocked(id string) int {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1
	}
	now := s.now()
	for i, p := range s.blogs {
		if p.ID == oid && !p.Expired(now) {
			return i
		}
	}
	return -1
}

func (s *Store) GetBlog(_ context.Context, id string) (models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.blogIndexLocked(id)
	if i < 0 {
		return models.BlogPost{}, storage.ErrNotFound
	}
	return clonePost(s.blogs[i]), nil
}

func (s *Store) ListBlogs(_ context.Context, f models.BlogFilter) ([]models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []models.BlogPost
	for _, p := range s.blogs {
		if p.Expired(now) ||
			(f.AuthorEmail != "" && p.AuthorEmail != f.AuthorEmail) ||
			(f.MunicipalityEmail != "" && p.MunicipalityEmail != f.MunicipalityEmail) ||
			(f.Status != "" && p.Status != f.Status) {
			continue
		}
		out = append(out, clonePost(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateBlogContent(_ context.Context, p models.BlogPost, now time.Time) (models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.blogIndexLocked(p.ID.Hex())
	if i < 0 || s.blogs[i].AuthorEmail != p.AuthorEmail {
		return models.BlogPost{}, storage.ErrNotFound
	}
	cur := &s.blogs[i]
	cur.Title = p.Title
	cur.Content = p.Content
	cur.Media = append([]models.Media{}, p.Media...)
	cur.UpdatedAt = now
	if cur.Status == models.BlogApproved {
		cur.Status = models.BlogPending
		cur.ApprovedAt = nil
	}
	return clonePost(*cur), nil
}

func (s *Store) TransitionBlog(_ context.Context, id, municipalityEmail, from, to string, now time.Time) (models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.blogIndexLocked(id)
	if i < 0 || s.blogs[i].MunicipalityEmail != municipalityEmail || s.blogs[i].Status != from {
		return models.BlogPost{}, storage.ErrNotFound
	}
	p := &s.blogs[i]
	p.Status = to
	p.UpdatedAt = now
	if to == models.BlogApproved {
		p.ApprovedAt = &now
	}
	return clonePost(*p), nil
}

func (s *Store) ToggleLike(_ context.Context, id, email string, now time.Time) (models.BlogPost, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.blogIndexLocked(id)
	if i < 0 || s.blogs[i].Status != models.BlogApproved {
		return models.BlogPost{}, false, storage.ErrNotFound
	}
	p := &s.blogs[i]
	liked := !p.LikedBy(email)
	if liked {
		p.Likes = append(p.Likes, email)
	} else {
		kept := p.Likes[:0]
		for _, l := range p.Likes {
			if l != email {
				kept = append(kept, l)
			}
		}
		p.Likes = kept
	}
	p.UpdatedAt = now
	return clonePost(*p), liked, nil
}

func (s *Store) DeleteBlog(_ context.Context, id, authorEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.blogIndexLocked(id)
	if i < 0 || s.blogs[i].AuthorEmail != authorEmail {
		return storage.ErrNotFound
	}
	s.blogs = append(s.blogs[:i], s.blogs[i+1:]...)
	return nil
}

func (s *Store) DeleteBlogsByAuthor(_ context.Context, authorEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.blogs[:0]
	for _, p := range s.blogs {
		if p.AuthorEmail != authorEmail {
			kept = append(kept, p)
		}
	}
	s.blogs = kept
	return nil
}

func clonePost(p models.BlogPost) models.BlogPost {
	p.Media = append([]models.Media(nil), p.Media...)
	p.Likes = append([]string(nil), p.Likes...)
	return p
}

/* ================================================================
   ISSUES
================================================================ */

func (s *Store) CreateIssue(_ context.Context, i *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}
	s.issues = append(s.issues, *i)
	return nil
}

func (s *Store) ListIssues(_ context.Context, f models.IssueFilter) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Issue
	for _, i := range s.issues {
		if (f.UserEmail != "" && i.UserEmail != f.UserEmail) ||
			(f.MunicipalityEmail != "" && i.MunicipalityEmail != f.MunicipalityEmail) ||
			(f.Status != "" && i.Status != f.Status) {
			continue
		}
		out = append(out, i)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *Store) ResolveIssue(_ context.Context, id, userEmail string, now time.Time) (models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Issue{}, storage.ErrNotFound
	}
	for i := range s.issues {
		is := &s.issues[i]
		if is.ID == oid && is.UserEmail == userEmail && is.Status == models.IssueOpen {
			is.Status = models.IssueResolved
			is.UpdatedAt = now
			return *is, nil
		}
	}
	return models.Issue{}, storage.ErrNotFound
}

func (s *Store) DeleteIssuesByUser(_ context.Context, userEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.issues[:0]
	for _, i := range s.issues {
		if i.UserEmail != userEmail {
			kept = append(kept, i)
		}
	}
	s.issues = kept
	return nil
}

/* ================================================================
   PRODUCTS
================================================================ */

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.products = append(s.products, cloneProduct(*p))
	return nil
}

func (s *Store) productIndexLocked(id string) int {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1
	}
	for i, p := range s.products {
		if p.ID == oid {
			return i
		}
	}
	return -1
}

func (s *Store) GetProduct(_ context.Context, id string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndexLocked(id)
	if i < 0 {
		return models.Product{}, storage.ErrNotFound
	}
	return cloneProduct(s.products[i]), nil
}

func (s *Store) ListProducts(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.products {
		if (f.SellerEmail != "" && p.SellerEmail != f.SellerEmail) ||
			(f.City != "" && !strings.EqualFold(p.City, f.City)) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, id, sellerEmail string, e models.ProductEdit, now time.Time) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndexLocked(id)
	if i < 0 || s.products[i].SellerEmail != sellerEmail {
		return models.Product{}, storage.ErrNotFound
	}
	p := &s.products[i]
	if e.Name != nil {
		p.Name = *e.Name
	}
	if e.Description != nil {
		p.Description = *e.Description
	}
	if e.Price != nil {
		p.Price = *e.Price
	}
	if e.Image != nil {
		p.Image = *e.Image
	}
	if e.City != nil {
		p.City = *e.City
	}
	p.UpdatedAt = now
	return cloneProduct(*p), nil
}

func (s *Store) AddReport(_ context.Context, id string, r models.Report) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndexLocked(id)
	if i < 0 {
		return models.Product{}, storage.ErrNotFound
	}
	p := &s.products[i]
	if p.SellerEmail == r.ReporterEmail || p.ReportedBy(r.ReporterEmail) {
		return models.Product{}, storage.ErrNotFound
	}
	p.Reports = append(p.Reports, r)
	return cloneProduct(*p), nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndexLocked(id)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	return nil
}

func (s *Store) DeleteSellerProduct(_ context.Context, id, sellerEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndexLocked(id)
	if i < 0 || s.products[i].SellerEmail != sellerEmail {
		return storage.ErrNotFound
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	return nil
}

func (s *Store) DeleteProductsBySeller(_ context.Context, sellerEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.products[:0]
	for _, p := range s.products {
		if p.SellerEmail != sellerEmail {
			kept = append(kept, p)
		}
	}
	s.products = kept
	return nil
}

func cloneProduct(p models.Product) models.Product {
	p.Reports = append([]models.Report(nil), p.Reports...)
	return p
}
