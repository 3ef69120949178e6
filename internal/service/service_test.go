package service_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishika-pasricha/Hack-Hub/internal/auth"
	"github.com/Rishika-pasricha/Hack-Hub/internal/directory"
	"github.com/Rishika-pasricha/Hack-Hub/internal/events"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/moderation"
	"github.com/Rishika-pasricha/Hack-Hub/internal/service"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage/memory"
)

const dataset = `District,Municipality_Name,Municipality_Type,Area_SqKm,Population,Contact_Email,Contact_Phone,Admin_Password
Gurugram,Gurugram Municipal Corporation,Municipal Corporation,232,876824,mcg@haryana.gov.in,0124-2222222,cityhall123
Faridabad,Faridabad Municipal Corporation,Municipal Corporation,742,1414050,mcf@haryana.gov.in,0129-1111111,
`

const mcg = "mcg@haryana.gov.in"

type mailbox struct {
	mu   sync.Mutex
	otps map[string]string
}

func (m *mailbox) SendOTP(_ context.Context, to, otp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[to] = otp
	return nil
}

func (m *mailbox) last(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.otps[to]
}

type fixture struct {
	svc    *service.Services
	deps   service.Deps
	store  *memory.Store
	events *events.Recorder
	mail   *mailbox
	now    time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.New(),
		events: &events.Recorder{},
		mail:   &mailbox{otps: map[string]string{}},
		now:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.store.SetClock(clock)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := auth.NewService("test-secret", time.Hour)
	dir := directory.New(f.store, nil, authSvc, log)
	_, err := dir.Sync(context.Background(), strings.NewReader(dataset))
	require.NoError(t, err)

	f.deps = service.Deps{
		Users:         f.store,
		Notifications: f.store,
		Removals:      f.store,
		Blogs:         f.store,
		Issues:        f.store,
		Products:      f.store,
		Directory:     dir,
		Auth:          authSvc,
		Mailer:        f.mail,
		Events:        f.events,
		Log:           log,
		Now:           clock,
	}
	f.svc = service.New(f.deps)
	return f
}

func (f *fixture) register(t *testing.T, first, email, area string) models.User {
	t.Helper()
	u, err := f.svc.Accounts.Register(context.Background(), service.RegisterInput{
		FirstName: first, LastName: "Sharma", Email: email, Password: "password1", Area: area,
	})
	require.NoError(t, err)
	return u
}

func userID(email string) models.Identity {
	return models.Identity{Email: email, Role: models.RoleUser}
}

func municipalityID(email string) models.Identity {
	return models.Identity{Email: email, Name: "Gurugram Municipal Corporation", Role: models.RoleMunicipality}
}

/* ---------- accounts ---------- */

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.register(t, "Asha", " Asha@Example.com ", "Gurugram")
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NotEmpty(t, u.ID)

	_, err := f.svc.Accounts.Register(ctx, service.RegisterInput{
		FirstName: "A", LastName: "B", Email: "asha@example.com", Password: "password1", Area: "x",
	})
	var conflict *service.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Email already registered", conflict.Message)

	_, err = f.svc.Accounts.Register(ctx, service.RegisterInput{
		FirstName: "A", LastName: "B", Email: "MCG@haryana.gov.in", Password: "password1", Area: "x",
	})
	require.ErrorAs(t, err, &conflict)

	_, err = f.svc.Accounts.Register(ctx, service.RegisterInput{
		FirstName: "A", LastName: "B", Email: "new@example.com", Password: "short", Area: "x",
	})
	var invalid *service.ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestLoginRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")

	res, err := f.svc.Accounts.Login(ctx, "ASHA@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, res.Identity.Role)
	assert.Equal(t, "Asha Sharma", res.Identity.Name)
	require.NotNil(t, res.User)
	assert.NotEmpty(t, res.Token)

	res, err = f.svc.Accounts.Login(ctx, mcg, "cityhall123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMunicipality, res.Identity.Role)
	require.NotNil(t, res.Municipality)
	assert.Equal(t, "Gurugram Municipal Corporation", res.Municipality.Name)

	_, err = f.svc.Accounts.Login(ctx, "asha@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.svc.Accounts.Login(ctx, "mcf@haryana.gov.in", "anything")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials, "municipality without credential cannot log in")
	_, err = f.svc.Accounts.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")

	require.NoError(t, f.svc.Accounts.ForgotPassword(ctx, "asha@example.com"))
	otp := f.mail.last("asha@example.com")
	require.Len(t, otp, 6)
	require.NoError(t, f.svc.Accounts.VerifyOTP(ctx, "asha@example.com", otp))

	f.advance(11 * time.Minute)
	err := f.svc.Accounts.VerifyOTP(ctx, "asha@example.com", otp)
	var otpErr *service.OTPError
	require.ErrorAs(t, err, &otpErr)
	assert.Equal(t, "OTP has expired", otpErr.Message)

	require.NoError(t, f.svc.Accounts.ForgotPassword(ctx, "asha@example.com"))
	otp = f.mail.last("asha@example.com")

	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}
	err = f.svc.Accounts.ResetPassword(ctx, "asha@example.com", wrong, "new-password")
	require.ErrorAs(t, err, &otpErr)
	assert.Equal(t, "Invalid OTP", otpErr.Message)

	require.NoError(t, f.svc.Accounts.ResetPassword(ctx, "asha@example.com", otp, "new-password"))
	_, err = f.svc.Accounts.Login(ctx, "asha@example.com", "new-password")
	require.NoError(t, err)

	err = f.svc.Accounts.VerifyOTP(ctx, "asha@example.com", otp)
	require.ErrorAs(t, err, &otpErr, "otp is single use")
}

func TestOTPGuessesAreRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")
	require.NoError(t, f.svc.Accounts.ForgotPassword(ctx, "asha@example.com"))
	otp := f.mail.last("asha@example.com")

	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}
	var otpErr *service.OTPError
	for i := 0; i < 5; i++ {
		require.ErrorAs(t, f.svc.Accounts.VerifyOTP(ctx, "asha@example.com", wrong), &otpErr)
	}
	assert.ErrorIs(t, f.svc.Accounts.VerifyOTP(ctx, "asha@example.com", otp), service.ErrRateLimited)
	assert.ErrorIs(t, f.svc.Accounts.ResetPassword(ctx, "asha@example.com", otp, "new-password"), service.ErrRateLimited)

	require.NoError(t, f.svc.Accounts.ForgotPassword(ctx, "asha@example.com"), "guesses do not use up reset requests")

	f.advance(4 * time.Minute)
	require.NoError(t, f.svc.Accounts.ResetPassword(ctx, "asha@example.com", f.mail.last("asha@example.com"), "new-password"))
}

func TestForgotPasswordGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Accounts.ForgotPassword(ctx, mcg)
	var forbidden *service.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, f.svc.Accounts.ForgotPassword(ctx, "ghost@example.com"))
	assert.Empty(t, f.mail.last("ghost@example.com"))

	for i := 0; i < 4; i++ {
		require.NoError(t, f.svc.Accounts.ForgotPassword(ctx, "ghost@example.com"))
	}
	assert.ErrorIs(t, f.svc.Accounts.ForgotPassword(ctx, "ghost@example.com"), service.ErrRateLimited)
}

func TestDeleteAccountCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")
	id := userID("asha@example.com")

	_, err := f.svc.Blogs.Submit(ctx, id, service.BlogInput{Title: "Cleanup", Content: "Sunday drive"})
	require.NoError(t, err)
	_, err = f.svc.Issues.Submit(ctx, id, service.IssueInput{Subject: "Garbage", Description: "Not collected"})
	require.NoError(t, err)
	_, err = f.svc.Products.Submit(ctx, id, service.ProductInput{Name: "Compost bin", Price: 500, Image: "data:image/png;base64,AA", City: "Gurugram"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Accounts.DeleteAccount(ctx, "asha@example.com"))

	blogs, _ := f.store.ListBlogs(ctx, models.BlogFilter{AuthorEmail: "asha@example.com"})
	issues, _ := f.store.ListIssues(ctx, models.IssueFilter{UserEmail: "asha@example.com"})
	products, _ := f.store.ListProducts(ctx, models.ProductFilter{SellerEmail: "asha@example.com"})
	assert.Empty(t, blogs)
	assert.Empty(t, issues)
	assert.Empty(t, products)
	_, err = f.store.GetUserByEmail(ctx, "asha@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

/* ---------- blogs ---------- */

func TestBlogSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")
	id := userID("asha@example.com")

	_, err := f.svc.Blogs.Submit(ctx, id, service.BlogInput{Title: "Empty", Content: "   "})
	var invalid *service.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Add text content or attach media to create a post", invalid.Message)

	_, err = f.svc.Blogs.Submit(ctx, id, service.BlogInput{
		Title: "Link", Media: []models.Media{{Type: "image", URL: "https://example.com/a.png"}},
	})
	require.ErrorAs(t, err, &invalid)

	_, err = f.svc.Blogs.Submit(ctx, id, service.BlogInput{Title: "Elsewhere", Content: "x", MunicipalityEmail: "none@gov.in"})
	require.ErrorAs(t, err, &invalid)

	p, err := f.svc.Blogs.Submit(ctx, id, service.BlogInput{
		Title: "Photo only", Media: []models.Media{{Type: "image", URL: "data:image/png;base64,AA"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BlogPending, p.Status)
	assert.Equal(t, mcg, p.MunicipalityEmail, "municipality resolved from the author's area")
	assert.Equal(t, models.SourceUser, p.SourceType)
}

func TestBlogLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")
	f.register(t, "Ravi", "ravi@example.com", "Faridabad")

	p, err := f.svc.Blogs.Submit(ctx, userID("asha@example.com"), service.BlogInput{Title: "Tree drive", Content: "Join us"})
	require.NoError(t, err)
	id := p.ID.Hex()

	list, err := f.svc.Blogs.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, list, "pending posts are not public")

	_, err = f.svc.Blogs.Approve(ctx, "mcf@haryana.gov.in", id)
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf, "only the owning municipality approves")

	approved, err := f.svc.Blogs.Approve(ctx, mcg, id)
	require.NoError(t, err)
	assert.Equal(t, models.BlogApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, []string{events.BlogApproved}, f.events.Types())

	_, err = f.svc.Blogs.Reject(ctx, mcg, id)
	require.ErrorAs(t, err, &nf, "approved posts cannot be rejected")

	like, err := f.svc.Blogs.ToggleLike(ctx, "ravi@example.com", id)
	require.NoError(t, err)
	assert.Equal(t, service.LikeResult{Liked: true, LikesCount: 1}, like)

	list, err = f.svc.Blogs.List(ctx, mcg, "ravi@example.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].LikedByCurrentUser)

	like, err = f.svc.Blogs.ToggleLike(ctx, "ravi@example.com", id)
	require.NoError(t, err)
	assert.Equal(t, service.LikeResult{Liked: false, LikesCount: 0}, like)

	title := "Ravi's edit"
	_, err = f.svc.Blogs.Edit(ctx, "ravi@example.com", id, models.BlogEdit{Title: &title})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Blog post not found for this account", nf.Message)

	title = "Tree drive, round two"
	edited, err := f.svc.Blogs.Edit(ctx, "asha@example.com", id, models.BlogEdit{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, models.BlogPending, edited.Status, "editing an approved post sends it back to review")
	assert.Nil(t, edited.ApprovedAt)

	pending, err := f.svc.Blogs.Pending(ctx, mcg)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, title, pending[0].Title)

	_, err = f.svc.Blogs.ToggleLike(ctx, "ravi@example.com", id)
	require.ErrorAs(t, err, &nf, "pending posts cannot be liked")

	require.ErrorAs(t, f.svc.Blogs.Delete(ctx, "ravi@example.com", id), &nf)
	require.NoError(t, f.svc.Blogs.Delete(ctx, "asha@example.com", id))
}

// likeOnRead commits a like right after every GetBlog, as a concurrent
// request would.
type likeOnRead struct {
	storage.BlogStore
	liker string
}

func (s likeOnRead) GetBlog(ctx context.Context, id string) (models.BlogPost, error) {
	p, err := s.BlogStore.GetBlog(ctx, id)
	if err == nil {
		_, _, err = s.BlogStore.ToggleLike(ctx, id, s.liker, p.UpdatedAt)
	}
	return p, err
}

func TestEditKeepsConcurrentLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")

	p, err := f.svc.Blogs.Submit(ctx, userID("asha@example.com"), service.BlogInput{Title: "Tree drive", Content: "Join us"})
	require.NoError(t, err)
	_, err = f.svc.Blogs.Approve(ctx, mcg, p.ID.Hex())
	require.NoError(t, err)

	deps := f.deps
	deps.Blogs = likeOnRead{BlogStore: f.store, liker: "ravi@example.com"}
	racing := service.New(deps)

	content := "Join us at 8am"
	edited, err := racing.Blogs.Edit(ctx, "asha@example.com", p.ID.Hex(), models.BlogEdit{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, content, edited.Content)
	assert.Equal(t, models.BlogPending, edited.Status)
	assert.Equal(t, []string{"ravi@example.com"}, edited.Likes)

	stored, err := f.store.GetBlog(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.LikedBy("ravi@example.com"))
}

func TestMunicipalityBlogUsesOwnEmail(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.Blogs.Submit(context.Background(), municipalityID(mcg), service.BlogInput{Title: "Notice", Content: "Water cut"})
	require.NoError(t, err)
	assert.Equal(t, mcg, p.MunicipalityEmail)
	assert.Equal(t, mcg, p.AuthorEmail)
	assert.Equal(t, models.SourceMunicipality, p.SourceType)
}

/* ---------- issues ---------- */

func TestIssueWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")

	_, err := f.svc.Issues.Submit(ctx, municipalityID(mcg), service.IssueInput{Subject: "s", Description: "d"})
	var forbidden *service.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	i, err := f.svc.Issues.Submit(ctx, userID("asha@example.com"), service.IssueInput{
		Subject: "Streetlight", Description: "Broken near sector 14", MunicipalityEmail: "MCF@haryana.gov.in",
	})
	require.NoError(t, err)
	assert.Equal(t, "mcf@haryana.gov.in", i.MunicipalityEmail)
	assert.Equal(t, models.IssueOpen, i.Status)

	var nf *service.NotFoundError
	_, err = f.svc.Issues.Resolve(ctx, "ravi@example.com", i.ID.Hex())
	require.ErrorAs(t, err, &nf)

	resolved, err := f.svc.Issues.Resolve(ctx, "asha@example.com", i.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.IssueResolved, resolved.Status)

	_, err = f.svc.Issues.Resolve(ctx, "asha@example.com", i.ID.Hex())
	require.ErrorAs(t, err, &nf, "resolved issues stay resolved")

	open, err := f.svc.Issues.ForMunicipality(ctx, "mcf@haryana.gov.in", "open")
	require.NoError(t, err)
	assert.Empty(t, open)
	done, err := f.svc.Issues.ForMunicipality(ctx, "mcf@haryana.gov.in", "resolved")
	require.NoError(t, err)
	assert.Len(t, done, 1)

	_, err = f.svc.Issues.ForMunicipality(ctx, mcg, "closed")
	var invalid *service.ValidationError
	require.ErrorAs(t, err, &invalid)
}

/* ---------- products ---------- */

func (f *fixture) seller(t *testing.T, email string, removed int) {
	t.Helper()
	require.NoError(t, f.store.CreateUser(context.Background(), &models.User{
		FirstName: "Seller", LastName: "One", Email: email, Area: "Gurugram", RemovedProductsCount: removed,
	}))
}

func (f *fixture) listProduct(t *testing.T, seller, name string) string {
	t.Helper()
	p, err := f.svc.Products.Submit(context.Background(), userID(seller), service.ProductInput{
		Name: name, Price: 250, Image: "data:image/png;base64,AA", City: "Gurugram",
	})
	require.NoError(t, err)
	return p.ID.Hex()
}

func TestReportGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seller(t, "seller@example.com", 0)
	id := f.listProduct(t, "seller@example.com", "Old cycle")

	var invalid *service.ValidationError
	_, err := f.svc.Products.Report(ctx, "a@example.com", id, "ugly")
	require.ErrorAs(t, err, &invalid)

	_, err = f.svc.Products.Report(ctx, "seller@example.com", id, "spam")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "You cannot report your own product", invalid.Message)

	res, err := f.svc.Products.Report(ctx, "a@example.com", id, " SPAM ")
	require.NoError(t, err)
	assert.Equal(t, service.ReportResult{ReportCount: 1}, res)

	_, err = f.svc.Products.Report(ctx, "a@example.com", id, "fake")
	var conflict *service.ConflictError
	require.ErrorAs(t, err, &conflict)

	_, err = f.svc.Products.Report(ctx, "a@example.com", "65f000000000000000000000", "spam")
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)

	notes, err := f.store.ListReportNotifications(ctx, "seller@example.com")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Your Old cycle was reported", notes[0].Message)
}

func TestFifthReportRemovesAndTenthRemovalBans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seller(t, "seller@example.com", moderation.BanEvery-1)
	id := f.listProduct(t, "seller@example.com", "Plastic chairs")

	reporters := []string{"r1@example.com", "r2@example.com", "r3@example.com", "r4@example.com", "r5@example.com"}
	for i, r := range reporters {
		res, err := f.svc.Products.Report(ctx, r, id, "scam")
		require.NoError(t, err)
		assert.Equal(t, i+1, res.ReportCount)
		assert.Equal(t, i == len(reporters)-1, res.Removed)
	}

	_, err := f.store.GetProduct(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = f.svc.Products.Report(ctx, "r6@example.com", id, "scam")
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf, "a removed product cannot be reported again")

	u, err := f.store.GetUserByEmail(ctx, "seller@example.com")
	require.NoError(t, err)
	assert.Equal(t, moderation.BanEvery, u.RemovedProductsCount)
	require.NotNil(t, u.UploadBanUntil)
	assert.Equal(t, f.now.Add(moderation.BanDuration), *u.UploadBanUntil)

	_, err = f.svc.Products.Submit(ctx, userID("seller@example.com"), service.ProductInput{
		Name: "Another", Price: 10, Image: "data:image/png;base64,AA", City: "Gurugram",
	})
	var ban *service.BanError
	require.ErrorAs(t, err, &ban)
	assert.Equal(t, *u.UploadBanUntil, ban.Until)

	notes, err := f.store.ListReportNotifications(ctx, "seller@example.com")
	require.NoError(t, err)
	require.Len(t, notes, 6)
	var removals int
	for _, n := range notes {
		if n.Type == models.NotificationRemoval {
			removals++
		}
	}
	assert.Equal(t, 1, removals)

	types := f.events.Types()
	assert.Equal(t, []string{events.ProductRemoved, events.SellerBanned}, types[len(types)-2:])

	pending, err := f.store.PendingRemovals(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	f.advance(moderation.BanDuration + time.Minute)
	f.listProduct(t, "seller@example.com", "After the ban")
}

func TestReconcileAppliesPendingRemovals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seller(t, "seller@example.com", 0)
	id := f.listProduct(t, "seller@example.com", "Lamp")

	require.NoError(t, f.store.RecordRemoval(ctx, models.PendingRemoval{
		ProductID: id, SellerEmail: "seller@example.com", ProductName: "Lamp", CreatedAt: f.now,
	}))

	n, err := f.svc.Products.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.store.GetProduct(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	u, err := f.store.GetUserByEmail(ctx, "seller@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, u.RemovedProductsCount)
	assert.Nil(t, u.UploadBanUntil)

	n, err = f.svc.Products.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "applied records are not applied twice")
	u, _ = f.store.GetUserByEmail(ctx, "seller@example.com")
	assert.Equal(t, 1, u.RemovedProductsCount)
}

func TestProductEditAndDeleteAreSellerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seller(t, "seller@example.com", 0)
	id := f.listProduct(t, "seller@example.com", "Desk")

	price := 0.0
	_, err := f.svc.Products.Edit(ctx, "seller@example.com", id, models.ProductEdit{Price: &price})
	var invalid *service.ValidationError
	require.ErrorAs(t, err, &invalid)

	price = 900
	var nf *service.NotFoundError
	_, err = f.svc.Products.Edit(ctx, "other@example.com", id, models.ProductEdit{Price: &price})
	require.ErrorAs(t, err, &nf)

	p, err := f.svc.Products.Edit(ctx, "seller@example.com", id, models.ProductEdit{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 900.0, p.Price)

	list, err := f.svc.Products.List(ctx, "gurugram")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Zero(t, list[0].ReportCount)

	require.ErrorAs(t, f.svc.Products.Delete(ctx, "other@example.com", id), &nf)
	require.NoError(t, f.svc.Products.Delete(ctx, "seller@example.com", id))
}

/* ---------- notifications ---------- */

func TestNotificationFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Asha", "asha@example.com", "Gurugram")
	f.register(t, "Ravi", "ravi@example.com", "Gurugram")

	p, err := f.svc.Blogs.Submit(ctx, userID("asha@example.com"), service.BlogInput{Title: "Lake cleanup", Content: "Saturday"})
	require.NoError(t, err)
	_, err = f.svc.Blogs.Approve(ctx, mcg, p.ID.Hex())
	require.NoError(t, err)

	for _, liker := range []string{"asha@example.com", "ravi@example.com", mcg} {
		_, err = f.svc.Blogs.ToggleLike(ctx, liker, p.ID.Hex())
		require.NoError(t, err)
	}

	old := f.now.Add(-20 * 24 * time.Hour)
	require.NoError(t, f.store.AddReportNotification(ctx, models.ReportNotification{
		UserEmail: "asha@example.com", Type: models.NotificationReport, ProductName: "Chair",
		Message: "Your Chair was reported", CreatedAt: old,
	}))
	f.advance(time.Minute)
	require.NoError(t, f.store.AddReportNotification(ctx, models.ReportNotification{
		UserEmail: "asha@example.com", Type: models.NotificationReport, ProductName: "Table",
		Message: "Your Table was reported", CreatedAt: f.now,
	}))

	feed, err := f.svc.Notifications.Feed(ctx, "asha@example.com")
	require.NoError(t, err)
	require.Len(t, feed, 3, "self-like and stale report are left out")
	assert.Equal(t, models.NotificationReport, feed[0].Type)

	names := map[string]bool{}
	for _, n := range feed[1:] {
		assert.Equal(t, models.NotificationLike, n.Type)
		names[n.ActorName] = true
	}
	assert.Equal(t, map[string]bool{"Ravi Sharma": true, "Gurugram Municipal Corporation": true}, names)

	stored, err := f.store.ListReportNotifications(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Len(t, stored, 1, "stale report notifications are pruned")
}
