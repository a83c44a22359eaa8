package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	coreErrors "github.com/falkben/media-organizer/pkg/core/errors"
	"github.com/falkben/media-organizer/pkg/core/metadata"
	"github.com/falkben/media-organizer/pkg/core/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns the movie entity graph.
type Store struct {
	db     *gorm.DB
	logger *log.Logger
}

// New wraps an already migrated gorm connection.
func New(db *gorm.DB, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{db: db, logger: logger}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindByTitle returns the single movie whose title matches exactly.
// It fails with ErrNotFound on no match and ErrAmbiguousResult on several.
func (s *Store) FindByTitle(ctx context.Context, title string) (*models.Movie, error) {
	return s.FindMovie(ctx, title, "")
}

// FindMovie is FindByTitle narrowed to movies released in year, when year is set.
func (s *Store) FindMovie(ctx context.Context, title, year string) (*models.Movie, error) {
	q := s.db.WithContext(ctx).Model(&models.Movie{}).Where("title = ?", title)
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid year %q", coreErrors.ErrNotFound, year)
		}
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		q = q.Where("release_date >= ? AND release_date < ?", start, start.AddDate(1, 0, 0))
	}

	var ids []uint
	if err := q.Order("id").Limit(2).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("%w: find movie %q: %w", coreErrors.ErrPersistence, title, err)
	}

	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("%w: movie %q", coreErrors.ErrNotFound, title)
	case 1:
		return s.GetMovie(ctx, ids[0])
	default:
		return nil, fmt.Errorf("%w: title %q", coreErrors.ErrAmbiguousResult, title)
	}
}

// FindByRemoteID returns the movie stored for the provider id. When the
// same record was ingested more than once the oldest row wins.
func (s *Store) FindByRemoteID(ctx context.Context, remoteID int) (*models.Movie, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Movie{}).
		Where("remote_id = ?", remoteID).Order("id").Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("%w: find remote id %d: %w", coreErrors.ErrPersistence, remoteID, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: remote id %d", coreErrors.ErrNotFound, remoteID)
	}
	return s.GetMovie(ctx, ids[0])
}

// GetMovie loads a movie by local id with every relationship populated.
func (s *Store) GetMovie(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	err := s.db.WithContext(ctx).Preload(clause.Associations).First(&movie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: movie id %d", coreErrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get movie %d: %w", coreErrors.ErrPersistence, id, err)
	}
	return &movie, nil
}

// ListMovies returns up to limit movies ordered by title. A limit <= 0 means no limit.
func (s *Store) ListMovies(ctx context.Context, limit int) ([]models.Movie, error) {
	var movies []models.Movie
	q := s.db.WithContext(ctx).Preload("Genres").Order("title").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&movies).Error; err != nil {
		return nil, fmt.Errorf("%w: list movies: %w", coreErrors.ErrPersistence, err)
	}
	return movies, nil
}

// Persist writes a normalized record and its entity graph in one transaction.
// Shared entities are found or created by their provider key, so a genre
// seen in an earlier ingestion is linked rather than duplicated. On any
// failure nothing from this call remains visible.
func (s *Store) Persist(ctx context.Context, rec *metadata.NormalizedRecord) (*models.Movie, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", coreErrors.ErrPersistence)
	}
	movie := rec.Movie
	movie.ID = 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Shared entities
		if rec.Collection != nil {
			collection := *rec.Collection
			if err := findOrCreate(tx, &collection, "remote_id = ?", collection.RemoteID, collection.RemoteID != 0); err != nil {
				return fmt.Errorf("collection %q: %w", collection.Name, err)
			}
			movie.CollectionID = &collection.ID
		}

		movie.Genres = make([]models.Genre, 0, len(rec.Genres))
		for _, g := range rec.Genres {
			if err := findOrCreate(tx, &g, "remote_id = ?", g.RemoteID, g.RemoteID != 0); err != nil {
				return fmt.Errorf("genre %q: %w", g.Name, err)
			}
			movie.Genres = append(movie.Genres, g)
		}

		movie.ProductionCompanies = make([]models.ProductionCompany, 0, len(rec.ProductionCompanies))
		for _, c := range rec.ProductionCompanies {
			if err := findOrCreate(tx, &c, "remote_id = ?", c.RemoteID, c.RemoteID != 0); err != nil {
				return fmt.Errorf("production company %q: %w", c.Name, err)
			}
			movie.ProductionCompanies = append(movie.ProductionCompanies, c)
		}

		movie.ProductionCountries = make([]models.ProductionCountry, 0, len(rec.ProductionCountries))
		for _, c := range rec.ProductionCountries {
			if err := findOrCreate(tx, &c, "iso_3166_1 = ?", c.ISO31661, c.ISO31661 != ""); err != nil {
				return fmt.Errorf("production country %q: %w", c.ISO31661, err)
			}
			movie.ProductionCountries = append(movie.ProductionCountries, c)
		}

		movie.SpokenLanguages = make([]models.SpokenLanguage, 0, len(rec.SpokenLanguages))
		for _, l := range rec.SpokenLanguages {
			if err := findOrCreate(tx, &l, "iso_639_1 = ?", l.ISO6391, l.ISO6391 != ""); err != nil {
				return fmt.Errorf("spoken language %q: %w", l.ISO6391, err)
			}
			movie.SpokenLanguages = append(movie.SpokenLanguages, l)
		}

		// 2. Movie row and link rows. Related rows already exist, so only
		// the join table references are written.
		err := tx.Omit(
			"Collection",
			"Genres.*",
			"ProductionCompanies.*",
			"ProductionCountries.*",
			"SpokenLanguages.*",
		).Create(&movie).Error
		if err != nil {
			return fmt.Errorf("movie %q: %w", movie.Title, err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"title":     movie.Title,
			"remote_id": movie.RemoteID,
		}).Error("Persist rolled back")
		return nil, fmt.Errorf("%w: %w", coreErrors.ErrPersistence, err)
	}

	s.logger.WithFields(log.Fields{
		"id":        movie.ID,
		"title":     movie.Title,
		"remote_id": movie.RemoteID,
		"genres":    len(movie.Genres),
	}).Info("Persisted movie")

	return s.GetMovie(ctx, movie.ID)
}

// findOrCreate loads the row matching the key into row, or inserts row.
// Rows without a usable key are always inserted.
func findOrCreate[T any](tx *gorm.DB, row *T, query string, key interface{}, keyed bool) error {
	if !keyed {
		return tx.Create(row).Error
	}
	return tx.Where(query, key).FirstOrCreate(row).Error
}
