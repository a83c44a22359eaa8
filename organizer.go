// Package mediaorganizer wires the path parser, the local metadata store,
// the TMDB provider and the resolver into one handle.
package mediaorganizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/falkben/media-organizer/pkg/core/lock"
	"github.com/falkben/media-organizer/pkg/core/metadata"
	"github.com/falkben/media-organizer/pkg/core/models"
	"github.com/falkben/media-organizer/pkg/core/store"
	"github.com/falkben/media-organizer/pkg/core/tmdb"
	"github.com/falkben/media-organizer/pkg/processor"
	"github.com/falkben/media-organizer/pkg/resolver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Config holds the configuration for an Organizer.
type Config struct {
	// Provider settings; APIKey is required unless a provider is passed
	// to NewWithProvider.
	APIKey    string
	BaseURL   string // Optional: Override default base URL
	UserAgent string
	Language  string
	Timeout   time.Duration
	Retries   uint

	DBDriver string // sqlite (default) or postgres
	DBDSN    string

	LockDir     string
	LockTimeout time.Duration

	// ResolveTimeout bounds each file of a directory scan. Zero means no bound.
	ResolveTimeout time.Duration

	ReleaseNames bool     // scene release name fallback in the path parser
	Fs           afero.Fs // filesystem for directory scans, OS when nil
	Logger       *logrus.Logger
}

// Organizer is the main entry point for resolving movie files.
type Organizer struct {
	config    Config
	provider  metadata.Provider
	store     *store.Store
	resolver  *resolver.Resolver
	processor *processor.Processor
	logger    *logrus.Logger
}

// New creates an Organizer backed by the TMDB API.
func New(cfg Config) (*Organizer, error) {
	client, err := tmdb.NewClient(tmdb.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Language:  cfg.Language,
		Timeout:   cfg.Timeout,
		Retries:   cfg.Retries,
	}, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, client)
}

// NewWithProvider creates an Organizer around an existing provider.
func NewWithProvider(cfg Config, provider metadata.Provider) (*Organizer, error) {
	if provider == nil {
		return nil, errors.New("metadata provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	st, err := store.Open(store.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN}, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	r := resolver.New(st, provider, resolver.Options{
		Parser:      metadata.Parser{ReleaseNames: cfg.ReleaseNames},
		Locker:      lock.NewFileLock(cfg.LockDir, cfg.Logger),
		LockTimeout: cfg.LockTimeout,
		Logger:      cfg.Logger,
	})

	proc := processor.NewProcessor(cfg.Fs, r, cfg.Logger)
	proc.ItemTimeout = cfg.ResolveTimeout

	return &Organizer{
		config:    cfg,
		provider:  provider,
		store:     st,
		resolver:  r,
		processor: proc,
		logger:    cfg.Logger,
	}, nil
}

// Resolve maps a movie file path to its stored metadata, fetching it from
// the provider on a local miss.
func (o *Organizer) Resolve(ctx context.Context, path string) (*resolver.Resolution, error) {
	return o.resolver.Resolve(ctx, path)
}

// ResolveDirectory resolves every video file under root.
func (o *Organizer) ResolveDirectory(ctx context.Context, root string, recursive bool) (*processor.Report, error) {
	return o.processor.ResolveDirectory(ctx, root, recursive)
}

// Search queries the provider without touching the store.
func (o *Organizer) Search(ctx context.Context, title, year string) ([]metadata.Candidate, error) {
	return o.provider.Search(ctx, title, year)
}

// Fetch returns a provider record without persisting it.
func (o *Organizer) Fetch(ctx context.Context, remoteID int) (*metadata.Record, error) {
	return o.provider.Fetch(ctx, remoteID)
}

// Ingest fetches and stores the provider record with remoteID.
func (o *Organizer) Ingest(ctx context.Context, remoteID int) (*models.Movie, error) {
	return o.resolver.Ingest(ctx, remoteID)
}

// IngestRecord stores a record already fetched or loaded from a cache.
func (o *Organizer) IngestRecord(ctx context.Context, rec *metadata.Record) (*models.Movie, error) {
	return o.resolver.IngestRecord(ctx, rec)
}

// FindMovie looks up the local store only.
func (o *Organizer) FindMovie(ctx context.Context, title, year string) (*models.Movie, error) {
	return o.store.FindMovie(ctx, title, year)
}

// Store exposes the underlying metadata store.
func (o *Organizer) Store() *store.Store {
	return o.store
}

// Resolver exposes the underlying resolver.
func (o *Organizer) Resolver() *resolver.Resolver {
	return o.resolver
}

// Provider exposes the metadata provider.
func (o *Organizer) Provider() metadata.Provider {
	return o.provider
}

// Close releases the store connection.
func (o *Organizer) Close() error {
	return o.store.Close()
}
