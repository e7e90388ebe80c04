package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	"github.com/AnshRaj112/commentwall-backend/internal/config"
	"github.com/AnshRaj112/commentwall-backend/internal/database"
	"github.com/AnshRaj112/commentwall-backend/internal/handlers"
	"github.com/AnshRaj112/commentwall-backend/internal/identity"
	"github.com/AnshRaj112/commentwall-backend/internal/middleware"
	"github.com/AnshRaj112/commentwall-backend/internal/routes"
	"github.com/AnshRaj112/commentwall-backend/internal/services"
	"github.com/AnshRaj112/commentwall-backend/internal/store"
)

// backends holds the connections opened for the configured drivers.
type backends struct {
	postgres *sql.DB
	mongo    *mongo.Client
	mongoDB  *mongo.Database
	redis    *redis.Client
}

func (b *backends) close() {
	if b.redis != nil {
		if err := database.DisconnectRedis(b.redis); err != nil {
			log.Error().Err(err).Msg("disconnect redis")
		}
	}
	if b.mongo != nil {
		if err := database.DisconnectMongo(b.mongo); err != nil {
			log.Error().Err(err).Msg("disconnect mongodb")
		}
	}
	if b.postgres != nil {
		if err := database.DisconnectPostgres(b.postgres); err != nil {
			log.Error().Err(err).Msg("disconnect postgres")
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogger(cfg)

	b, err := connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect backends")
	}
	defer b.close()

	commentStore, err := newCommentStore(ctx, cfg, b)
	if err != nil {
		log.Fatal().Err(err).Msg("init comment store")
	}
	provider := newIdentityProvider(cfg, b)
	sessions := services.NewSessionManager(cfg.SessionCookieName, cfg.IsProduction())

	hub := services.NewHub()
	opts := []services.CommentOption{services.WithAnonymous(cfg.AllowAnonymous)}
	if cfg.ModerateComments {
		opts = append(opts, services.WithModerator(services.NewModerator(cfg.ModerationTerms)))
	}
	if b.redis != nil {
		feed := services.NewRedisFeed(b.redis, hub)
		go feed.Run(ctx)
		opts = append(opts,
			services.WithCountCache(services.NewRedisCountCache(b.redis, services.DefaultCountTTL)),
			services.WithPublisher(feed),
		)
	} else {
		opts = append(opts, services.WithPublisher(hub))
	}
	comments := services.NewCommentService(commentStore, opts...)

	deps := routes.Deps{
		Auth:           handlers.NewAuthHandler(provider, sessions, cfg.UpstreamTimeout),
		Comments:       handlers.NewCommentHandler(comments, cfg.UpstreamTimeout),
		Feed:           handlers.NewFeedHandler(hub, cfg.AllowedOrigins),
		SPA:            handlers.NewSPA(cfg.StaticDir, cfg.IndexFile),
		Health:         comments,
		RequireAuth:    middleware.RequireAuth(provider, sessions),
		AllowedOrigins: cfg.AllowedOrigins,
		AuthLimit:      middleware.AuthRateLimit(),
		HealthTimeout:  5 * time.Second,
	}
	if len(cfg.AdminEmails) > 0 {
		deps.RequireAdmin = middleware.RequireAdmin(cfg.IsAdmin)
	} else {
		log.Warn().Msg("ADMIN_EMAILS not set, /api/comments/allcomments is public")
	}
	if cfg.IsProduction() {
		limiter := middleware.NewIPRateLimiter(rate.Limit(middleware.GlobalRateLimitRPS), middleware.GlobalRateLimitBurst)
		go limiter.RunCleanup(ctx.Done())
		deps.Security = middleware.ProductionSecurity(limiter)
		log.Info().Msg("production security enabled (security headers, per-IP rate limiting)")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("comment_store", cfg.CommentStore).
			Str("identity_provider", cfg.IdentityProvider).
			Msg("starting commentwall backend")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
	log.Info().Msg("server stopped")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func connect(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	if cfg.NeedsPostgres() {
		db, err := database.ConnectPostgres(ctx, cfg.PostgresURI)
		if err != nil {
			return nil, err
		}
		b.postgres = db
	}

	if cfg.CommentStore == config.StoreMongo {
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			b.close()
			return nil, err
		}
		b.mongo, b.mongoDB = client, db
	}

	if cfg.RedisURI != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURI)
		if err != nil {
			b.close()
			return nil, err
		}
		b.redis = client
	}

	return b, nil
}

func newCommentStore(ctx context.Context, cfg *config.Config, b *backends) (store.CommentStore, error) {
	switch cfg.CommentStore {
	case config.StorePostgres:
		return store.NewPostgresStore(b.postgres), nil
	case config.StoreMongo:
		s := store.NewMongoStore(b.mongoDB)
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		log.Warn().Msg("using in-memory comment store, comments are lost on restart")
		var opts []store.MemoryOption
		if cfg.MemoryStoreCap > 0 {
			opts = append(opts, store.WithCap(cfg.MemoryStoreCap, cfg.MemoryStoreKeep))
		}
		return store.NewMemoryStore(opts...), nil
	}
}

func newIdentityProvider(cfg *config.Config, b *backends) identity.Provider {
	switch cfg.IdentityProvider {
	case config.IdentitySupabase:
		return identity.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey, &http.Client{Timeout: cfg.UpstreamTimeout})
	case config.IdentityLocal:
		var tokens identity.TokenStore
		if b.redis != nil {
			tokens = identity.NewRedisTokenStore(b.redis)
		} else {
			log.Warn().Msg("REDIS_URI not set, sessions are kept in memory")
			tokens = identity.NewMemoryTokenStore()
		}
		return identity.NewLocalProvider(identity.NewPostgresUserStore(b.postgres), tokens)
	default:
		log.Warn().Msg("using in-memory identity provider, accounts are lost on restart")
		return identity.NewMemoryProvider()
	}
}
