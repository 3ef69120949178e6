package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Rishika-pasricha/Hack-Hub/internal/auth"
	"github.com/Rishika-pasricha/Hack-Hub/internal/config"
	"github.com/Rishika-pasricha/Hack-Hub/internal/db"
	"github.com/Rishika-pasricha/Hack-Hub/internal/directory"
	"github.com/Rishika-pasricha/Hack-Hub/internal/email"
	"github.com/Rishika-pasricha/Hack-Hub/internal/events"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/service"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage/memory"
	mongostore "github.com/Rishika-pasricha/Hack-Hub/internal/storage/mongo"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage/postgres"
	"github.com/Rishika-pasricha/Hack-Hub/internal/utils"
)

/* ------------------------------------------------------------------
   App struct: runtime container
-------------------------------------------------------------------*/

type App struct {
	cfg config.Config
	log *slog.Logger

	// infrastructure, nil when not configured
	pg    *sqlx.DB
	mongo *mongo.Client
	redis *redis.Client
	nats  *nats.Conn

	auth      *auth.Service
	directory *directory.Directory
	services  *service.Services
	signer    *email.DKIMSigner

	webRouter *gin.Engine
	server    *http.Server
}

// stores groups the repositories handed to the services.
type stores struct {
	users         storage.UserStore
	municipality  storage.MunicipalityStore
	notifications storage.NotificationStore
	removals      storage.RemovalStore
	blogs         storage.BlogStore
	issues        storage.IssueStore
	products      storage.ProductStore
}

func New(cfg config.Config, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{cfg: cfg, log: log}
}

/* ------------------------------------------------------------------
   Public getters
-------------------------------------------------------------------*/

func (a *App) Config() config.Config           { return a.cfg }
func (a *App) Log() *slog.Logger               { return a.log }
func (a *App) Auth() *auth.Service             { return a.auth }
func (a *App) Services() *service.Services     { return a.services }
func (a *App) Directory() *directory.Directory { return a.directory }
func (a *App) Signer() *email.DKIMSigner       { return a.signer }
func (a *App) SetWebRouter(r *gin.Engine)      { a.webRouter = r }

/* ------------------------------------------------------------------
   Init / Run / Close lifecycle
-------------------------------------------------------------------*/

// Init connects the configured backends and builds the services.
func (a *App) Init(ctx context.Context) error {
	a.auth = auth.NewService(a.cfg.JWTSecret, a.cfg.JWTTTL)

	/* 1. repositories */
	st, err := a.initStores(ctx)
	if err != nil {
		return err
	}

	/* 2. municipality email cache */
	var cache directory.EmailCache
	if a.cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		cache = directory.NewRedisCache(a.redis, directory.DefaultCacheKey)
	}
	a.directory = directory.New(st.municipality, cache, a.auth, a.log)

	/* 3. events */
	var pub events.Publisher = events.Nop{}
	if a.cfg.NATSURL != "" {
		if a.nats, err = events.Connect(a.cfg.NATSURL, a.log); err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		pub = events.NewNATSPublisher(a.nats, a.log)
	}

	/* 4. OTP mail */
	if dk := a.cfg.DKIM; dk.KeyFile != "" {
		domain := dk.Domain
		if domain == "" {
			domain = utils.GetDomainFromEmail(a.cfg.SMTP.From)
		}
		if a.signer, err = email.NewDKIMSigner(domain, dk.Selector, dk.KeyFile); err != nil {
			return fmt.Errorf("dkim: %w", err)
		}
	}
	mailer := email.NewMailer(a.cfg.SMTP, a.signer, a.log)

	a.services = service.New(service.Deps{
		Users:         st.users,
		Notifications: st.notifications,
		Removals:      st.removals,
		Blogs:         st.blogs,
		Issues:        st.issues,
		Products:      st.products,
		Directory:     a.directory,
		Auth:          a.auth,
		Mailer:        mailer,
		Limiter:       auth.NewOTPLimiter(a.cfg.OTP.MaxRequests, a.cfg.OTP.Window),
		Events:        pub,
		Log:           a.log,
	})
	return nil
}

func (a *App) initStores(ctx context.Context) (stores, error) {
	if a.cfg.InMemory() {
		m := memory.New()
		a.log.Info("using in-memory storage")
		return stores{m, m, m, m, m, m, m}, nil
	}

	pc := a.cfg.Postgres
	var err error
	a.pg, err = db.Connect(db.DSN(pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode))
	if err != nil {
		return stores{}, fmt.Errorf("postgres: %w", err)
	}
	if err := db.Migrate(ctx, a.pg); err != nil {
		return stores{}, err
	}
	rel := postgres.New(a.pg)

	if a.mongo, err = db.ConnectMongo(ctx, a.cfg.Mongo.URI); err != nil {
		return stores{}, fmt.Errorf("mongo: %w", err)
	}
	mdb := a.mongo.Database(a.cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, mdb, models.BlogTTL); err != nil {
		return stores{}, err
	}
	docs := mongostore.New(mdb)

	return stores{rel, rel, rel, rel, docs, docs, docs}, nil
}

// Startup imports the municipality dataset when present and finishes any
// removals left pending by an earlier crash.
func (a *App) Startup(ctx context.Context) {
	if path := a.cfg.MunicipalityCSV; path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := a.directory.SyncFile(ctx, path); err != nil {
				a.log.Error("municipality import failed", "path", path, "err", err)
			}
		} else {
			a.log.Warn("municipality dataset not found", "path", path)
		}
	}
	if err := a.directory.Refresh(ctx); err != nil {
		a.log.Warn("municipality cache refresh", "err", err)
	}
	if _, err := a.services.Products.Reconcile(ctx); err != nil {
		a.log.Error("reconcile pending removals", "err", err)
	}
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.webRouter == nil {
		return errors.New("web router not set")
	}
	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.WebHost, a.cfg.WebPort),
		Handler:           a.webRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("HTTP listening", "addr", a.server.Addr)
		errc <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}

func (a *App) Close() error {
	var errs []error
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
