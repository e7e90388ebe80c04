package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	IdentitySupabase = "supabase"
	IdentityLocal    = "local"
	IdentityMemory   = "memory"
)

type Config struct {
	Environment string `env:"ENV,default=development"`
	Port        string `env:"PORT,default=3000"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	// CORS: ALLOWED_ORIGINS wins, then FRONTEND_URL
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`
	FrontendURL    string   `env:"FRONTEND_URL"`

	CommentStore     string `env:"COMMENT_STORE,default=postgres"`
	IdentityProvider string `env:"IDENTITY_PROVIDER,default=supabase"`

	PostgresURI   string `env:"POSTGRES_URI,default=postgres://localhost:5432/commentwall?sslmode=disable"`
	MongoURI      string `env:"MONGODB_URI,default=mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE,default=commentwall"`
	RedisURI      string `env:"REDIS_URI"` // optional

	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`

	SessionCookieName string `env:"SESSION_COOKIE_NAME,default=sb-access-token"`

	StaticDir string `env:"STATIC_DIR,default=public"`
	IndexFile string `env:"INDEX_FILE,default=index.html"`

	// When set, /api/comments/allcomments is restricted to these accounts
	AdminEmails    []string `env:"ADMIN_EMAILS"`
	AllowAnonymous bool     `env:"ALLOW_ANONYMOUS_COMMENTS,default=true"`

	// Held comments are stored as pending and never listed publicly
	ModerateComments bool     `env:"MODERATE_COMMENTS,default=false"`
	ModerationTerms  []string `env:"MODERATION_TERMS"`

	MemoryStoreCap  int `env:"MEMORY_STORE_CAP,default=100"`
	MemoryStoreKeep int `env:"MEMORY_STORE_KEEP,default=50"`

	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT,default=10s"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads the configuration through the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.CommentStore = strings.ToLower(strings.TrimSpace(cfg.CommentStore))
	cfg.IdentityProvider = strings.ToLower(strings.TrimSpace(cfg.IdentityProvider))
	cfg.AllowedOrigins = normalizeList(cfg.AllowedOrigins)
	cfg.AdminEmails = normalizeList(cfg.AdminEmails)
	cfg.ModerationTerms = normalizeList(cfg.ModerationTerms)
	for i, e := range cfg.AdminEmails {
		cfg.AdminEmails[i] = strings.ToLower(e)
	}

	if len(cfg.AllowedOrigins) == 0 {
		if u := strings.TrimSpace(cfg.FrontendURL); u != "" {
			cfg.AllowedOrigins = []string{u}
		} else {
			cfg.AllowedOrigins = []string{"http://localhost:3000"}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks driver selection and the credentials each driver needs.
func (c *Config) Validate() error {
	switch c.CommentStore {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresURI == "" {
			return fmt.Errorf("POSTGRES_URI is required for comment store %q", c.CommentStore)
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for comment store %q", c.CommentStore)
		}
	default:
		return fmt.Errorf("unknown COMMENT_STORE %q (want memory, postgres or mongo)", c.CommentStore)
	}

	switch c.IdentityProvider {
	case IdentityMemory:
	case IdentitySupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for identity provider %q", c.IdentityProvider)
		}
	case IdentityLocal:
		if c.PostgresURI == "" {
			return fmt.Errorf("POSTGRES_URI is required for identity provider %q", c.IdentityProvider)
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q (want supabase, local or memory)", c.IdentityProvider)
	}

	if c.MemoryStoreCap > 0 && (c.MemoryStoreKeep <= 0 || c.MemoryStoreKeep > c.MemoryStoreCap) {
		return fmt.Errorf("MEMORY_STORE_KEEP must be between 1 and MEMORY_STORE_CAP")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NeedsPostgres reports whether any configured driver talks to PostgreSQL.
func (c *Config) NeedsPostgres() bool {
	return c.CommentStore == StorePostgres || c.IdentityProvider == IdentityLocal
}

// IsAdmin reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdmin(email string) bool {
	return containsFold(c.AdminEmails, email)
}

func normalizeList(in []string) []string {
	var out []string
	for _, part := range in {
		part = strings.TrimSpace(part)
		if part != "" && !containsFold(out, part) {
			out = append(out, part)
		}
	}
	return out
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}
