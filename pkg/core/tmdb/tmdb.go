package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/falkben/media-organizer/internal/constants"
	"github.com/falkben/media-organizer/internal/httpclient"
	coreErrors "github.com/falkben/media-organizer/pkg/core/errors"
	"github.com/falkben/media-organizer/pkg/core/metadata"
	log "github.com/sirupsen/logrus"
)

const (
	searchEndpoint = "/search/movie"
	movieEndpoint  = "/movie/"
)

// Config holds the configuration for the TMDB client.
type Config struct {
	APIKey    string
	BaseURL   string // Optional: Override default base URL
	UserAgent string
	Language  string        // Optional ISO 639-1 code, e.g. "en-US"
	Timeout   time.Duration // Per request; defaults to constants.DefaultHTTPTimeout
	// Retries is the number of extra attempts after a provider-unavailable
	// failure. Zero means every failure surfaces immediately.
	Retries    uint
	RetryDelay time.Duration
}

// Client is a metadata.Provider backed by the TMDB v3 API.
type Client struct {
	cfg    Config
	http   *httpclient.Client
	logger *log.Logger
}

// Ensure Client implements metadata.Provider
var _ metadata.Provider = (*Client)(nil)

// NewClient creates a new TMDB API client.
func NewClient(cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("TMDB API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultBaseURL
	} else if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid BaseURL provided: %w", err)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Client{
		cfg:    cfg,
		http:   httpclient.New(cfg.BaseURL, cfg.APIKey, cfg.UserAgent, cfg.Timeout),
		logger: logger,
	}, nil
}

// Search returns movies matching title, and year when set, in TMDB's
// relevance order. Only the first result page is read.
func (c *Client) Search(ctx context.Context, title, year string) ([]metadata.Candidate, error) {
	params := searchParams{Query: title, Year: year, Language: c.cfg.Language}

	body, err := c.get(ctx, searchEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("tmdb search %q: %w", title, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("tmdb search %q: %w: %v", title, coreErrors.ErrInvalidRecord, err)
	}

	candidates := make([]metadata.Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.ID <= 0 {
			continue
		}
		candidates = append(candidates, metadata.Candidate{
			RemoteID:      r.ID,
			Title:         r.Title,
			OriginalTitle: r.OriginalTitle,
			ReleaseDate:   r.ReleaseDate,
			Overview:      r.Overview,
			Popularity:    r.Popularity,
		})
	}

	c.logger.WithFields(log.Fields{
		"query":   title,
		"year":    year,
		"results": len(candidates),
		"total":   resp.TotalResults,
	}).Debug("TMDB search complete")
	return candidates, nil
}

// Fetch returns the full record for a TMDB movie id.
func (c *Client) Fetch(ctx context.Context, remoteID int) (*metadata.Record, error) {
	body, err := c.FetchRaw(ctx, remoteID)
	if err != nil {
		return nil, err
	}
	rec, err := DecodeRecord(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tmdb movie %d: %w", remoteID, err)
	}
	if rec.RemoteID != remoteID {
		return nil, fmt.Errorf("tmdb movie %d: %w: response carries id %d", remoteID, coreErrors.ErrInvalidRecord, rec.RemoteID)
	}
	return rec, nil
}

// FetchRaw returns the undecoded JSON document for a TMDB movie id.
func (c *Client) FetchRaw(ctx context.Context, remoteID int) ([]byte, error) {
	if remoteID <= 0 {
		return nil, fmt.Errorf("tmdb movie %d: %w: invalid id", remoteID, coreErrors.ErrNotFound)
	}
	body, err := c.get(ctx, movieEndpoint+strconv.Itoa(remoteID), detailsParams{Language: c.cfg.Language})
	if err != nil {
		return nil, fmt.Errorf("tmdb movie %d: %w", remoteID, err)
	}
	return body, nil
}

// DecodeRecord decodes a TMDB movie details document, as returned by
// GET /movie/{id} or cached on disk, and checks it at the boundary.
func DecodeRecord(r io.Reader) (*metadata.Record, error) {
	var details movieDetails
	if err := json.NewDecoder(r).Decode(&details); err != nil {
		return nil, fmt.Errorf("%w: decode movie details: %v", coreErrors.ErrInvalidRecord, err)
	}
	if details.ID <= 0 {
		return nil, fmt.Errorf("%w: movie details without id", coreErrors.ErrInvalidRecord)
	}
	if details.Title == nil {
		return nil, fmt.Errorf("%w: movie %d without title", coreErrors.ErrInvalidRecord, details.ID)
	}
	return details.toRecord(), nil
}

// get performs one GET, retried only when configured and only for
// provider-unavailable failures.
func (c *Client) get(ctx context.Context, path string, params interface{}) ([]byte, error) {
	var body []byte
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			b, err := c.http.Get(ctx, path, params)
			if err != nil {
				err = classify(err)
				if attempt > 1 || c.cfg.Retries > 0 {
					c.logger.WithError(err).WithFields(log.Fields{
						"path":    path,
						"attempt": attempt,
					}).Warn("TMDB request failed")
				}
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.Retries+1),
		retry.Delay(c.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, coreErrors.ErrProviderUnavailable)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// classify maps transport and status failures onto the error taxonomy.
func classify(err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.Status
		var apiErr errorResponse
		if json.Unmarshal([]byte(statusErr.Body), &apiErr) == nil && apiErr.StatusMessage != "" {
			msg = fmt.Sprintf("%s: %s", statusErr.Status, apiErr.StatusMessage)
		}
		if statusErr.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", coreErrors.ErrNotFound, msg)
		}
		return fmt.Errorf("%w: %s", coreErrors.ErrProviderUnavailable, msg)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", coreErrors.ErrProviderUnavailable, err)
	}
	return fmt.Errorf("%w: %v", coreErrors.ErrProviderUnavailable, err)
}

func (d *movieDetails) toRecord() *metadata.Record {
	rec := &metadata.Record{
		RemoteID:         d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		ReleaseDate:      d.ReleaseDate,
		Runtime:          d.Runtime,
		Overview:         d.Overview,
		Tagline:          d.Tagline,
		Homepage:         d.Homepage,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		Budget:           d.Budget,
		Revenue:          d.Revenue,
		Popularity:       d.Popularity,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		Adult:            d.Adult,
		Video:            d.Video,
		Status:           d.Status,
		OriginalLanguage: d.OriginalLanguage,
		IMDbID:           d.IMDbID,
	}

	for _, g := range d.Genres {
		rec.Genres = append(rec.Genres, metadata.GenreRecord{ID: g.ID, Name: g.Name})
	}
	if c := d.BelongsToCollection; c != nil {
		rec.Collection = &metadata.CollectionRecord{
			ID:           c.ID,
			Name:         c.Name,
			PosterPath:   c.PosterPath,
			BackdropPath: c.BackdropPath,
		}
	}
	for _, pc := range d.ProductionCompanies {
		rec.ProductionCompanies = append(rec.ProductionCompanies, metadata.CompanyRecord{
			ID:            pc.ID,
			Name:          pc.Name,
			OriginCountry: pc.OriginCountry,
			LogoPath:      pc.LogoPath,
		})
	}
	for _, pc := range d.ProductionCountries {
		rec.ProductionCountries = append(rec.ProductionCountries, metadata.CountryRecord{ISO31661: pc.ISO31661, Name: pc.Name})
	}
	for _, l := range d.SpokenLanguages {
		rec.SpokenLanguages = append(rec.SpokenLanguages, metadata.LanguageRecord{
			ISO6391:     l.ISO6391,
			Name:        l.Name,
			EnglishName: l.EnglishName,
		})
	}
	return rec
}
