package app

import (
	"context"
	"fmt"

	"github.com/anoixa/memlane/config"
	"github.com/anoixa/memlane/database"
	"github.com/anoixa/memlane/database/repo/counts"
	"github.com/anoixa/memlane/database/repo/memories"
	"github.com/anoixa/memlane/database/repo/timelines"
	"github.com/anoixa/memlane/internal/blob"
	"github.com/anoixa/memlane/internal/session"
	"github.com/anoixa/memlane/storage"
	"github.com/rs/zerolog/log"
)

// Container owns the long lived collaborators. Repositories are not shared:
// each request gets its own pair bound to the caller's credential.
type Container struct {
	config   *config.Config
	provider database.Provider
	storage  storage.Provider
	gateway  *blob.Gateway
	planner  *counts.Planner
	options  timelines.Options
}

// Repositories the repositories of one access-scoped session
type Repositories struct {
	Session   *session.Session
	Timelines *timelines.Repository
	Memories  *memories.Repository
}

func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:  cfg,
		planner: counts.NewPlanner(),
		options: optionsFrom(cfg),
	}
}

// NewContainerWith assembles a container from already built collaborators
func NewContainerWith(cfg *config.Config, provider database.Provider, store storage.Provider) *Container {
	c := NewContainer(cfg)
	c.provider = provider
	c.storage = store
	c.gateway = newGateway(cfg, store)
	return c
}

// Init opens the database and the storage backend
func (c *Container) Init(ctx context.Context) error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.InitStorage(ctx); err != nil {
		return err
	}
	return nil
}

func (c *Container) InitDatabase() error {
	provider, err := database.NewGormProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.provider = provider
	log.Info().Str("type", provider.Name()).Msg("Database initialized")
	return nil
}

func (c *Container) InitStorage(ctx context.Context) error {
	store, err := storage.New(ctx, c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.storage = store
	c.gateway = newGateway(c.config, store)
	return nil
}

// Repositories builds the repositories for one caller credential
func (c *Container) Repositories(credential string) *Repositories {
	sess := session.New(c.provider, credential)
	mem := memories.NewRepository(sess, c.gateway)
	return &Repositories{
		Session:   sess,
		Timelines: timelines.NewRepository(sess, mem, c.planner, c.options),
		Memories:  mem,
	}
}

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) DatabaseProvider() database.Provider {
	return c.provider
}

func (c *Container) StorageProvider() storage.Provider {
	return c.storage
}

func (c *Container) Gateway() *blob.Gateway {
	return c.gateway
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.provider == nil {
		return nil
	}
	if err := c.provider.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Debug().Msg("Container closed")
	return nil
}

func newGateway(cfg *config.Config, store storage.Provider) *blob.Gateway {
	return blob.NewGateway(store, blob.Options{
		Bucket:            cfg.StorageBucket,
		PublicBaseURL:     cfg.PublicBaseURL(),
		DeleteConcurrency: cfg.BlobDeleteConcurrency,
	})
}

func optionsFrom(cfg *config.Config) timelines.Options {
	opts := timelines.DefaultOptions()
	if cfg.SlugMaxAttempts > 0 {
		opts.MaxAttempts = cfg.SlugMaxAttempts
	}
	if cfg.SlugInsertRetries >= 0 {
		opts.InsertRetries = cfg.SlugInsertRetries
	}
	return opts
}
