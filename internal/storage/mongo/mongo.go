// Package mongo stores blog posts, issues and products as documents.
package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rishika-pasricha/Hack-Hub/internal/db"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

type Store struct {
	blogs    *mongo.Collection
	issues   *mongo.Collection
	products *mongo.Collection
	now      func() time.Time
}

var (
	_ storage.BlogStore    = (*Store)(nil)
	_ storage.IssueStore   = (*Store)(nil)
	_ storage.ProductStore = (*Store)(nil)
)

func New(database *mongo.Database) *Store {
	return &Store{
		blogs:    database.Collection(db.BlogPosts),
		issues:   database.Collection(db.Issues),
		products: database.Collection(db.Products),
		now:      time.Now,
	}
}

// SetClock replaces the clock used to hide posts the TTL monitor has not
// reaped yet.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

var newest = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

var after = options.FindOneAndUpdate().SetReturnDocument(options.After)

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return err
}

/* ================================================================
   BLOG POSTS
================================================================ */

// live restricts f to posts younger than the blog TTL.
func (s *Store) live(f bson.M) bson.M {
	f["createdAt"] = bson.M{"$gt": s.now().Add(-models.BlogTTL)}
	return f
}

func (s *Store) CreateBlog(ctx context.Context, p *models.BlogPost) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Media == nil {
		p.Media = []models.Media{}
	}
	_, err := s.blogs.InsertOne(ctx, p)
	return err
}

func (s *Store) GetBlog(ctx context.Context, id string) (models.BlogPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.BlogPost{}, storage.ErrNotFound
	}
	var p models.BlogPost
	err = s.blogs.FindOne(ctx, s.live(bson.M{"_id": oid})).Decode(&p)
	return p, mapErr(err)
}

func (s *Store) ListBlogs(ctx context.Context, f models.BlogFilter) ([]models.BlogPost, error) {
	q := bson.M{}
	if f.AuthorEmail != "" {
		q["authorEmail"] = f.AuthorEmail
	}
	if f.MunicipalityEmail != "" {
		q["municipalityEmail"] = f.MunicipalityEmail
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	cur, err := s.blogs.Find(ctx, s.live(q), newest)
	if err != nil {
		return nil, err
	}
	var posts []models.BlogPost
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// contentUpdate sets the author-editable fields and demotes an approved post
// to pending in the same write. Likes and status changes committed after the
// caller read the post are left alone.
func contentUpdate(p models.BlogPost, now time.Time) mongo.Pipeline {
	media := p.Media
	if media == nil {
		media = []models.Media{}
	}
	wasApproved := bson.M{"$eq": bson.A{"$status", models.BlogApproved}}
	return mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"title":      bson.M{"$literal": p.Title},
		"content":    bson.M{"$literal": p.Content},
		"media":      bson.M{"$literal": media},
		"updatedAt":  now,
		"status":     bson.M{"$cond": bson.A{wasApproved, models.BlogPending, "$status"}},
		"approvedAt": bson.M{"$cond": bson.A{wasApproved, nil, "$approvedAt"}},
	}}}}
}

func (s *Store) UpdateBlogContent(ctx context.Context, p models.BlogPost, now time.Time) (models.BlogPost, error) {
	var out models.BlogPost
	err := s.blogs.FindOneAndUpdate(ctx,
		s.live(bson.M{"_id": p.ID, "authorEmail": p.AuthorEmail}),
		contentUpdate(p, now), after).Decode(&out)
	return out, mapErr(err)
}

func (s *Store) TransitionBlog(ctx context.Context, id, municipalityEmail, from, to string, now time.Time) (models.BlogPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.BlogPost{}, storage.ErrNotFound
	}
	set := bson.M{"status": to, "updatedAt": now}
	if to == models.BlogApproved {
		set["approvedAt"] = now
	}
	var p models.BlogPost
	err = s.blogs.FindOneAndUpdate(ctx,
		s.live(bson.M{"_id": oid, "municipalityEmail": municipalityEmail, "status": from}),
		bson.M{"$set": set}, after).Decode(&p)
	return p, mapErr(err)
}

// ToggleLike tries to add the like and, when the email is already present,
// removes it. Both steps are conditional updates so concurrent toggles by
// different users never overwrite each other.
func (s *Store) ToggleLike(ctx context.Context, id, email string, now time.Time) (models.BlogPost, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.BlogPost{}, false, storage.ErrNotFound
	}
	var p models.BlogPost
	err = s.blogs.FindOneAndUpdate(ctx,
		s.live(bson.M{"_id": oid, "status": models.BlogApproved, "likes": bson.M{"$ne": email}}),
		bson.M{"$addToSet": bson.M{"likes": email}, "$set": bson.M{"updatedAt": now}}, after).Decode(&p)
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.BlogPost{}, false, err
	}
	err = s.blogs.FindOneAndUpdate(ctx,
		s.live(bson.M{"_id": oid, "status": models.BlogApproved, "likes": email}),
		bson.M{"$pull": bson.M{"likes": email}, "$set": bson.M{"updatedAt": now}}, after).Decode(&p)
	if err != nil {
		return models.BlogPost{}, false, mapErr(err)
	}
	return p, false, nil
}

func (s *Store) DeleteBlog(ctx context.Context, id, authorEmail string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}
	res, err := s.blogs.DeleteOne(ctx, s.live(bson.M{"_id": oid, "authorEmail": authorEmail}))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBlogsByAuthor(ctx context.Context, authorEmail string) error {
	_, err := s.blogs.DeleteMany(ctx, bson.M{"authorEmail": authorEmail})
	return err
}

/* ================================================================
   ISSUES
================================================================ */

func (s *Store) CreateIssue(ctx context.Context, i *models.Issue) error {
	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}
	_, err := s.issues.InsertOne(ctx, i)
	return err
}

func (s *Store) ListIssues(ctx context.Context, f models.IssueFilter) ([]models.Issue, error) {
	q := bson.M{}
	if f.UserEmail != "" {
		q["userEmail"] = f.UserEmail
	}
	if f.MunicipalityEmail != "" {
		q["municipalityEmail"] = f.MunicipalityEmail
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	cur, err := s.issues.Find(ctx, q, newest)
	if err != nil {
		return nil, err
	}
	var issues []models.Issue
	if err := cur.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *Store) ResolveIssue(ctx context.Context, id, userEmail string, now time.Time) (models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Issue{}, storage.ErrNotFound
	}
	var i models.Issue
	err = s.issues.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userEmail": userEmail, "status": models.IssueOpen},
		bson.M{"$set": bson.M{"status": models.IssueResolved, "updatedAt": now}}, after).Decode(&i)
	return i, mapErr(err)
}

func (s *Store) DeleteIssuesByUser(ctx context.Context, userEmail string) error {
	_, err := s.issues.DeleteMany(ctx, bson.M{"userEmail": userEmail})
	return err
}

/* ================================================================
   PRODUCTS
================================================================ */

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Reports == nil {
		p.Reports = []models.Report{}
	}
	_, err := s.products.InsertOne(ctx, p)
	return err
}

func (s *Store) GetProduct(ctx context.Context, id string) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, storage.ErrNotFound
	}
	var p models.Product
	err = s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	return p, mapErr(err)
}

func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	q := bson.M{}
	if f.SellerEmail != "" {
		q["sellerEmail"] = f.SellerEmail
	}
	if f.City != "" {
		q["city"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.City) + "$", Options: "i"}
	}
	cur, err := s.products.Find(ctx, q, newest)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id, sellerEmail string, e models.ProductEdit, now time.Time) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, storage.ErrNotFound
	}
	set := bson.M{"updatedAt": now}
	if e.Name != nil {
		set["productName"] = *e.Name
	}
	if e.Description != nil {
		set["description"] = *e.Description
	}
	if e.Price != nil {
		set["price"] = *e.Price
	}
	if e.Image != nil {
		set["productImageUrl"] = *e.Image
	}
	if e.City != nil {
		set["city"] = *e.City
	}
	var p models.Product
	err = s.products.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "sellerEmail": sellerEmail}, bson.M{"$set": set}, after).Decode(&p)
	return p, mapErr(err)
}

// AddReport pushes r only when the reporter is neither the seller nor an
// earlier reporter, so the count cannot be inflated by retries.
func (s *Store) AddReport(ctx context.Context, id string, r models.Report) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, storage.ErrNotFound
	}
	var p models.Product
	err = s.products.FindOneAndUpdate(ctx,
		bson.M{
			"_id":                   oid,
			"sellerEmail":           bson.M{"$ne": r.ReporterEmail},
			"reports.reporterEmail": bson.M{"$ne": r.ReporterEmail},
		},
		bson.M{"$push": bson.M{"reports": r}}, after).Decode(&p)
	return p, mapErr(err)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteProduct(ctx, id, bson.M{})
}

func (s *Store) DeleteSellerProduct(ctx context.Context, id, sellerEmail string) error {
	return s.deleteProduct(ctx, id, bson.M{"sellerEmail": sellerEmail})
}

func (s *Store) deleteProduct(ctx context.Context, id string, q bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}
	q["_id"] = oid
	res, err := s.products.DeleteOne(ctx, q)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProductsBySeller(ctx context.Context, sellerEmail string) error {
	_, err := s.products.DeleteMany(ctx, bson.M{"sellerEmail": sellerEmail})
	return err
}
