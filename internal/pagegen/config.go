package pagegen

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds generator tunables. Every field can be overridden from the environment.
type Config struct {
	CategoryMinItems int `env:"PAGEGEN_CATEGORY_MIN_ITEMS" envDefault:"5"`
	ScopeMinItems    int `env:"PAGEGEN_SCOPE_MIN_ITEMS" envDefault:"5"`
	QuizMinItems     int `env:"PAGEGEN_QUIZ_MIN_ITEMS" envDefault:"4"`

	UncategorizedSlug string `env:"PAGEGEN_UNCATEGORIZED_SLUG" envDefault:"uncategorized"`

	CategoryParentPath      string `env:"PAGEGEN_CATEGORY_PARENT" envDefault:"/flashcards"`
	ScopeCategoryParentPath string `env:"PAGEGEN_SCOPE_CATEGORY_PARENT" envDefault:"/scope-flashcards"`
	ScopeParentPath         string `env:"PAGEGEN_SCOPE_PARENT" envDefault:"/collections"`

	SyncInterval  time.Duration `env:"PAGEGEN_SYNC_INTERVAL" envDefault:"6h"`
	SyncTick      time.Duration `env:"PAGEGEN_SYNC_TICK" envDefault:"1m"`
	ResyncLockTTL time.Duration `env:"PAGEGEN_RESYNC_LOCK_TTL" envDefault:"10m"`
	RouteFlushTTL time.Duration `env:"PAGEGEN_ROUTE_FLUSH_TTL" envDefault:"5m"`
	SeedHoldTTL   time.Duration `env:"PAGEGEN_SEED_HOLD_TTL" envDefault:"24h"`

	SnapshotCacheSize int `env:"PAGEGEN_SNAPSHOT_CACHE_SIZE" envDefault:"4096"`
	SweepPageSize     int `env:"PAGEGEN_SWEEP_PAGE_SIZE" envDefault:"200"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig is LoadConfig with an empty environment.
func DefaultConfig() Config {
	var cfg Config
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	c.UncategorizedSlug = strings.TrimSpace(c.UncategorizedSlug)
	c.CategoryParentPath = cleanPath(c.CategoryParentPath)
	c.ScopeCategoryParentPath = cleanPath(c.ScopeCategoryParentPath)
	c.ScopeParentPath = cleanPath(c.ScopeParentPath)
}

func (c Config) Validate() error {
	if c.CategoryMinItems < 1 || c.ScopeMinItems < 1 || c.QuizMinItems < 1 {
		return fmt.Errorf("pagegen config: minimum item counts must be positive")
	}
	for _, p := range []string{c.CategoryParentPath, c.ScopeCategoryParentPath, c.ScopeParentPath} {
		if p == "/" {
			return fmt.Errorf("pagegen config: parent path must not be the root")
		}
	}
	if c.SyncInterval <= 0 || c.SyncTick <= 0 {
		return fmt.Errorf("pagegen config: sync interval and tick must be positive")
	}
	return nil
}

// ScopeCategoryMin is the qualifying count a (scope, category) pair needs.
func (c Config) ScopeCategoryMin() int {
	if c.QuizMinItems > c.ScopeMinItems {
		return c.QuizMinItems
	}
	return c.ScopeMinItems
}

// cleanPath returns a rooted, slash-cleaned path without a trailing slash.
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	return path.Clean("/" + strings.Trim(p, "/"))
}
