package metadata

import (
	"fmt"
	"strings"
	"time"

	coreErrors "github.com/falkben/media-organizer/pkg/core/errors"
	"github.com/falkben/media-organizer/pkg/core/models"
)

// releaseDateLayout is the provider's date format.
const releaseDateLayout = "2006-01-02"

// NormalizedRecord is a full record split into the Movie's scalar fields and
// the five relationship-bearing entity lists, ready for persistence.
type NormalizedRecord struct {
	Movie               models.Movie // scalars only, no associations set
	Genres              []models.Genre
	Collection          *models.Collection
	ProductionCompanies []models.ProductionCompany
	ProductionCountries []models.ProductionCountry
	SpokenLanguages     []models.SpokenLanguage
}

// Normalize validates rec and maps it field by field onto the entity models.
// Any invalid part rejects the whole record with ErrInvalidRecord.
func Normalize(rec *Record) (*NormalizedRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", coreErrors.ErrInvalidRecord)
	}

	movie, err := movieFromRecord(rec)
	if err != nil {
		return nil, err
	}
	out := &NormalizedRecord{Movie: movie}

	for i, g := range rec.Genres {
		genre, err := genreFromRecord(g)
		if err != nil {
			return nil, fmt.Errorf("genres[%d]: %w", i, err)
		}
		out.Genres = append(out.Genres, genre)
	}

	if rec.Collection != nil {
		collection, err := collectionFromRecord(*rec.Collection)
		if err != nil {
			return nil, fmt.Errorf("belongs_to_collection: %w", err)
		}
		out.Collection = &collection
	}

	for i, c := range rec.ProductionCompanies {
		company, err := companyFromRecord(c)
		if err != nil {
			return nil, fmt.Errorf("production_companies[%d]: %w", i, err)
		}
		out.ProductionCompanies = append(out.ProductionCompanies, company)
	}

	for i, c := range rec.ProductionCountries {
		country, err := countryFromRecord(c)
		if err != nil {
			return nil, fmt.Errorf("production_countries[%d]: %w", i, err)
		}
		out.ProductionCountries = append(out.ProductionCountries, country)
	}

	for i, l := range rec.SpokenLanguages {
		language, err := languageFromRecord(l)
		if err != nil {
			return nil, fmt.Errorf("spoken_languages[%d]: %w", i, err)
		}
		out.SpokenLanguages = append(out.SpokenLanguages, language)
	}

	return out, nil
}

func movieFromRecord(rec *Record) (models.Movie, error) {
	if rec.RemoteID <= 0 {
		return models.Movie{}, fmt.Errorf("%w: missing remote id", coreErrors.ErrInvalidRecord)
	}
	if rec.Title == nil || strings.TrimSpace(*rec.Title) == "" {
		return models.Movie{}, fmt.Errorf("%w: movie %d has no title", coreErrors.ErrInvalidRecord, rec.RemoteID)
	}

	releaseDate, err := parseReleaseDate(rec.ReleaseDate)
	if err != nil {
		return models.Movie{}, fmt.Errorf("%w: movie %d: %v", coreErrors.ErrInvalidRecord, rec.RemoteID, err)
	}

	return models.Movie{
		RemoteID:         rec.RemoteID,
		Title:            *rec.Title,
		OriginalTitle:    rec.OriginalTitle,
		ReleaseDate:      releaseDate,
		Runtime:          rec.Runtime,
		Overview:         rec.Overview,
		Tagline:          rec.Tagline,
		Homepage:         rec.Homepage,
		PosterPath:       rec.PosterPath,
		BackdropPath:     rec.BackdropPath,
		Budget:           rec.Budget,
		Revenue:          rec.Revenue,
		Popularity:       rec.Popularity,
		VoteAverage:      rec.VoteAverage,
		VoteCount:        rec.VoteCount,
		Adult:            rec.Adult,
		Video:            rec.Video,
		Status:           rec.Status,
		OriginalLanguage: rec.OriginalLanguage,
		IMDbID:           rec.IMDbID,
	}, nil
}

// parseReleaseDate treats an absent or empty date as unknown.
func parseReleaseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(releaseDateLayout, *s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("bad release_date %q", *s)
	}
	return &t, nil
}

func genreFromRecord(g GenreRecord) (models.Genre, error) {
	if g.Name == "" {
		return models.Genre{}, fmt.Errorf("%w: genre %d has no name", coreErrors.ErrInvalidRecord, g.ID)
	}
	return models.Genre{RemoteID: g.ID, Name: g.Name}, nil
}

func collectionFromRecord(c CollectionRecord) (models.Collection, error) {
	if c.Name == "" {
		return models.Collection{}, fmt.Errorf("%w: collection %d has no name", coreErrors.ErrInvalidRecord, c.ID)
	}
	return models.Collection{
		RemoteID:     c.ID,
		Name:         c.Name,
		PosterPath:   c.PosterPath,
		BackdropPath: c.BackdropPath,
	}, nil
}

func companyFromRecord(c CompanyRecord) (models.ProductionCompany, error) {
	if c.Name == "" {
		return models.ProductionCompany{}, fmt.Errorf("%w: production company %d has no name", coreErrors.ErrInvalidRecord, c.ID)
	}
	return models.ProductionCompany{
		RemoteID:      c.ID,
		Name:          c.Name,
		OriginCountry: c.OriginCountry,
		LogoPath:      c.LogoPath,
	}, nil
}

func countryFromRecord(c CountryRecord) (models.ProductionCountry, error) {
	if c.ISO31661 == "" {
		return models.ProductionCountry{}, fmt.Errorf("%w: production country %q has no iso_3166_1 code", coreErrors.ErrInvalidRecord, c.Name)
	}
	return models.ProductionCountry{ISO31661: c.ISO31661, Name: c.Name}, nil
}

// Languages are keyed by code; TMDB leaves the native name empty for some.
func languageFromRecord(l LanguageRecord) (models.SpokenLanguage, error) {
	if l.ISO6391 == "" {
		return models.SpokenLanguage{}, fmt.Errorf("%w: spoken language %q has no iso_639_1 code", coreErrors.ErrInvalidRecord, l.EnglishName)
	}
	return models.SpokenLanguage{
		ISO6391:     l.ISO6391,
		Name:        l.Name,
		EnglishName: l.EnglishName,
	}, nil
}
