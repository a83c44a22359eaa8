// Package resolver turns a movie file path into a stored Movie, consulting
// the local store first and the remote provider only on a miss.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	coreErrors "github.com/falkben/media-organizer/pkg/core/errors"
	"github.com/falkben/media-organizer/pkg/core/metadata"
	"github.com/falkben/media-organizer/pkg/core/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultLockTimeout bounds the wait for another resolution of the same title.
const DefaultLockTimeout = 2 * time.Minute

// Outcome is the terminal state of a resolution.
type Outcome string

const (
	OutcomeLocalHit Outcome = "local_hit"
	OutcomeFetched  Outcome = "fetched"
	OutcomeNotFound Outcome = "not_found"
)

// Resolution is the result of resolving one path. NotFound is an outcome,
// not an error: Movie is nil and the error returned alongside is nil.
type Resolution struct {
	RequestID string        `json:"request_id" yaml:"request_id"`
	Path      string        `json:"path" yaml:"path"`
	Title     string        `json:"title" yaml:"title"`
	Year      string        `json:"year,omitempty" yaml:"year,omitempty"`
	Outcome   Outcome       `json:"outcome" yaml:"outcome"`
	Movie     *models.Movie `json:"movie,omitempty" yaml:"movie,omitempty"`
}

// Found reports whether the resolution produced a movie.
func (r *Resolution) Found() bool {
	return r != nil && r.Movie != nil
}

// MovieStore is the part of the metadata store the resolver needs.
type MovieStore interface {
	FindMovie(ctx context.Context, title, year string) (*models.Movie, error)
	FindByRemoteID(ctx context.Context, remoteID int) (*models.Movie, error)
	Persist(ctx context.Context, rec *metadata.NormalizedRecord) (*models.Movie, error)
}

// Locker serializes check-then-fetch-and-persist per key.
type Locker interface {
	TryLock(ctx context.Context, key string, timeout time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// PathParser extracts the lookup query from a path.
type PathParser interface {
	Parse(path string) metadata.ParsedPath
}

// Options configures a Resolver. Zero values select defaults.
type Options struct {
	Parser      PathParser // strict metadata.Parser when nil
	Locker      Locker     // no serialization when nil
	LockTimeout time.Duration
	Logger      *log.Logger
}

// Resolver orchestrates parse, local lookup, remote lookup, normalization
// and persistence.
type Resolver struct {
	store       MovieStore
	provider    metadata.Provider
	parser      PathParser
	locker      Locker
	lockTimeout time.Duration
	logger      *log.Logger
}

// New creates a Resolver.
func New(store MovieStore, provider metadata.Provider, opts Options) *Resolver {
	if opts.Parser == nil {
		opts.Parser = metadata.Parser{}
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	return &Resolver{
		store:       store,
		provider:    provider,
		parser:      opts.Parser,
		locker:      opts.Locker,
		lockTimeout: opts.LockTimeout,
		logger:      opts.Logger,
	}
}

// Resolve maps path to a stored Movie. The provider is only queried when
// the store has no unique match, and the record is only fetched when its
// provider id is not stored yet. A failure at any step is returned as is
// and nothing is retried. Bound the provider call through ctx.
func (r *Resolver) Resolve(ctx context.Context, path string) (*Resolution, error) {
	parsed := r.parser.Parse(path)
	res := &Resolution{
		RequestID: uuid.NewString(),
		Path:      path,
		Title:     parsed.Title,
		Year:      parsed.Year,
	}
	logger := r.logger.WithFields(log.Fields{
		"request_id": res.RequestID,
		"path":       path,
		"title":      parsed.Title,
		"year":       parsed.Year,
	})

	if parsed.Title == "" {
		logger.Info("Nothing to look up")
		res.Outcome = OutcomeNotFound
		return res, nil
	}

	release, err := r.acquire(ctx, "title:"+parsed.Title)
	if err != nil {
		return nil, err
	}
	defer release()

	// 1. Local store
	movie, err := r.store.FindMovie(ctx, parsed.Title, parsed.Year)
	switch {
	case err == nil:
		logger.WithField("movie_id", movie.ID).Debug("Local hit")
		res.Outcome = OutcomeLocalHit
		res.Movie = movie
		return res, nil
	case errors.Is(err, coreErrors.ErrAmbiguousResult):
		logger.Warn("Several stored movies share this title, falling back to provider")
	case errors.Is(err, coreErrors.ErrNotFound):
		logger.Debug("Local miss")
	default:
		return nil, fmt.Errorf("store lookup %q: %w", parsed.Title, err)
	}

	// 2. Provider search
	candidates, err := r.provider.Search(ctx, parsed.Title, parsed.Year)
	if err != nil {
		logger.WithError(err).Error("Provider search failed")
		return nil, fmt.Errorf("search %q: %w", parsed.Title, providerError(err))
	}
	if len(candidates) == 0 {
		logger.Info("No provider match")
		res.Outcome = OutcomeNotFound
		return res, nil
	}

	// 3. The top candidate may already be stored under a different title
	// or release year.
	top := candidates[0]
	logger = logger.WithField("remote_id", top.RemoteID)
	releaseRemote, err := r.acquire(ctx, remoteKey(top.RemoteID))
	if err != nil {
		return nil, err
	}
	defer releaseRemote()

	movie, err = r.store.FindByRemoteID(ctx, top.RemoteID)
	switch {
	case err == nil:
		logger.WithField("movie_id", movie.ID).Debug("Local hit by remote id")
		res.Outcome = OutcomeLocalHit
		res.Movie = movie
		return res, nil
	case !errors.Is(err, coreErrors.ErrNotFound):
		return nil, fmt.Errorf("store lookup remote id %d: %w", top.RemoteID, err)
	}

	// 4. Fetch, normalize and persist
	movie, err = r.fetchAndPersist(ctx, top.RemoteID, logger)
	if err != nil {
		return nil, err
	}

	logger.WithField("movie_id", movie.ID).Info("Resolved from provider")
	res.Outcome = OutcomeFetched
	res.Movie = movie
	return res, nil
}

// Ingest fetches and persists one provider record by remote id, without a
// local lookup. Calling it twice stores the movie twice.
func (r *Resolver) Ingest(ctx context.Context, remoteID int) (*models.Movie, error) {
	release, err := r.acquire(ctx, remoteKey(remoteID))
	if err != nil {
		return nil, err
	}
	defer release()

	logger := r.logger.WithFields(log.Fields{"request_id": uuid.NewString(), "remote_id": remoteID})
	return r.fetchAndPersist(ctx, remoteID, logger)
}

// IngestRecord normalizes and persists a record already in hand, such as a
// cached provider response.
func (r *Resolver) IngestRecord(ctx context.Context, rec *metadata.Record) (*models.Movie, error) {
	norm, err := metadata.Normalize(rec)
	if err != nil {
		return nil, err
	}
	movie, err := r.store.Persist(ctx, norm)
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(log.Fields{"movie_id": movie.ID, "remote_id": movie.RemoteID}).Info("Ingested record")
	return movie, nil
}

func (r *Resolver) fetchAndPersist(ctx context.Context, remoteID int, logger *log.Entry) (*models.Movie, error) {
	rec, err := r.provider.Fetch(ctx, remoteID)
	if err != nil {
		logger.WithError(err).Error("Provider fetch failed")
		return nil, fmt.Errorf("fetch %d: %w", remoteID, providerError(err))
	}

	norm, err := metadata.Normalize(rec)
	if err != nil {
		logger.WithError(err).Error("Provider record rejected")
		return nil, fmt.Errorf("normalize %d: %w", remoteID, err)
	}

	movie, err := r.store.Persist(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("persist %d: %w", remoteID, err)
	}
	return movie, nil
}

func remoteKey(remoteID int) string {
	return "remote:" + strconv.Itoa(remoteID)
}

// acquire takes the keyed lock and returns its release function.
func (r *Resolver) acquire(ctx context.Context, key string) (func(), error) {
	if r.locker == nil {
		return func() {}, nil
	}
	ok, err := r.locker.TryLock(ctx, key, r.lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("lock %q: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q after %s", coreErrors.ErrLockTimeout, key, r.lockTimeout)
	}
	return func() {
		if err := r.locker.Unlock(context.WithoutCancel(ctx), key); err != nil {
			r.logger.WithError(err).WithField("key", key).Warn("Failed to release lock")
		}
	}, nil
}

// providerError keeps taxonomy errors as they are and files anything else
// under ErrProviderUnavailable.
func providerError(err error) error {
	switch {
	case errors.Is(err, coreErrors.ErrProviderUnavailable),
		errors.Is(err, coreErrors.ErrNotFound),
		errors.Is(err, coreErrors.ErrInvalidRecord):
		return err
	default:
		return fmt.Errorf("%w: %w", coreErrors.ErrProviderUnavailable, err)
	}
}
