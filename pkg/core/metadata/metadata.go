package metadata

import (
	"context"
)

// Candidate is a lightweight search hit, used only to pick which full record to fetch.
type Candidate struct {
	RemoteID      int     `json:"id" yaml:"id"`
	Title         string  `json:"title" yaml:"title"`
	OriginalTitle string  `json:"original_title,omitempty" yaml:"original_title,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty" yaml:"release_date,omitempty"` // YYYY-MM-DD, may be empty
	Overview      string  `json:"overview,omitempty" yaml:"overview,omitempty"`
	Popularity    float64 `json:"popularity,omitempty" yaml:"popularity,omitempty"`
}

// Record is a provider's full movie record. Scalars are pointers so an
// absent value stays distinguishable from a zero value.
type Record struct {
	RemoteID         int      `json:"id"`
	Title            *string  `json:"title"`
	OriginalTitle    *string  `json:"original_title"`
	ReleaseDate      *string  `json:"release_date"`
	Runtime          *int     `json:"runtime"`
	Overview         *string  `json:"overview"`
	Tagline          *string  `json:"tagline"`
	Homepage         *string  `json:"homepage"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	Budget           *int64   `json:"budget"`
	Revenue          *int64   `json:"revenue"`
	Popularity       *float64 `json:"popularity"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int     `json:"vote_count"`
	Adult            *bool    `json:"adult"`
	Video            *bool    `json:"video"`
	Status           *string  `json:"status"`
	OriginalLanguage *string  `json:"original_language"`
	IMDbID           *string  `json:"imdb_id"`

	// Relationship-bearing keys.
	Genres              []GenreRecord     `json:"genres"`
	Collection          *CollectionRecord `json:"belongs_to_collection"`
	ProductionCompanies []CompanyRecord   `json:"production_companies"`
	ProductionCountries []CountryRecord   `json:"production_countries"`
	SpokenLanguages     []LanguageRecord  `json:"spoken_languages"`
}

type GenreRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CollectionRecord struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
}

type CompanyRecord struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	OriginCountry string  `json:"origin_country"`
	LogoPath      *string `json:"logo_path"`
}

type CountryRecord struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

type LanguageRecord struct {
	ISO6391     string `json:"iso_639_1"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

// Provider is the remote metadata source used on a local miss.
// Search returns candidates in relevance order; an empty slice is not an error.
type Provider interface {
	Search(ctx context.Context, title, year string) ([]Candidate, error)
	Fetch(ctx context.Context, remoteID int) (*Record, error)
}
