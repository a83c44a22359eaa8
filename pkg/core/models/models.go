// Package models holds the gorm entities of the movie metadata graph.
//
// Every table uses a store-generated ID as primary key. The provider's own
// identifier is kept in RemoteID (or the ISO code for countries and
// languages) and is never used as a key.
package models

import "time"

// Movie is a resolved movie and the root of the entity graph.
type Movie struct {
	ID               uint       `gorm:"primaryKey" json:"id" yaml:"id"`
	RemoteID         int        `gorm:"index;not null" json:"remote_id" yaml:"remote_id"`
	Title            string     `gorm:"index;not null" json:"title" yaml:"title"`
	OriginalTitle    *string    `json:"original_title,omitempty" yaml:"original_title,omitempty"`
	ReleaseDate      *time.Time `gorm:"index" json:"release_date,omitempty" yaml:"release_date,omitempty"`
	Runtime          *int       `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Overview         *string    `json:"overview,omitempty" yaml:"overview,omitempty"`
	Tagline          *string    `json:"tagline,omitempty" yaml:"tagline,omitempty"`
	Homepage         *string    `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	PosterPath       *string    `json:"poster_path,omitempty" yaml:"poster_path,omitempty"`
	BackdropPath     *string    `json:"backdrop_path,omitempty" yaml:"backdrop_path,omitempty"`
	Budget           *int64     `json:"budget,omitempty" yaml:"budget,omitempty"`
	Revenue          *int64     `json:"revenue,omitempty" yaml:"revenue,omitempty"`
	Popularity       *float64   `json:"popularity,omitempty" yaml:"popularity,omitempty"`
	VoteAverage      *float64   `json:"vote_average,omitempty" yaml:"vote_average,omitempty"`
	VoteCount        *int       `json:"vote_count,omitempty" yaml:"vote_count,omitempty"`
	Adult            *bool      `json:"adult,omitempty" yaml:"adult,omitempty"`
	Video            *bool      `json:"video,omitempty" yaml:"video,omitempty"`
	Status           *string    `json:"status,omitempty" yaml:"status,omitempty"`
	OriginalLanguage *string    `json:"original_language,omitempty" yaml:"original_language,omitempty"`
	IMDbID           *string    `gorm:"column:imdb_id" json:"imdb_id,omitempty" yaml:"imdb_id,omitempty"`

	CollectionID        *uint               `gorm:"index" json:"collection_id,omitempty" yaml:"collection_id,omitempty"`
	Collection          *Collection         `json:"collection,omitempty" yaml:"collection,omitempty"`
	Genres              []Genre             `gorm:"many2many:movie_genre;" json:"genres" yaml:"genres"`
	ProductionCompanies []ProductionCompany `gorm:"many2many:movie_production_company;" json:"production_companies" yaml:"production_companies"`
	ProductionCountries []ProductionCountry `gorm:"many2many:movie_production_country;" json:"production_countries" yaml:"production_countries"`
	SpokenLanguages     []SpokenLanguage    `gorm:"many2many:movie_spoken_language;" json:"spoken_languages" yaml:"spoken_languages"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

func (Movie) TableName() string { return "movie" }

// ReleaseYear returns the release year, or 0 when the date is unknown.
func (m *Movie) ReleaseYear() int {
	if m.ReleaseDate == nil {
		return 0
	}
	return m.ReleaseDate.Year()
}

// Genre is shared between movies through movie_genre.
type Genre struct {
	ID       uint   `gorm:"primaryKey" json:"id" yaml:"id"`
	RemoteID int    `gorm:"index" json:"remote_id" yaml:"remote_id"`
	Name     string `gorm:"not null" json:"name" yaml:"name"`
}

func (Genre) TableName() string { return "genre" }

// Collection groups movies of a franchise. A movie belongs to at most one.
type Collection struct {
	ID           uint    `gorm:"primaryKey" json:"id" yaml:"id"`
	RemoteID     int     `gorm:"index" json:"remote_id" yaml:"remote_id"`
	Name         string  `gorm:"not null" json:"name" yaml:"name"`
	PosterPath   *string `json:"poster_path,omitempty" yaml:"poster_path,omitempty"`
	BackdropPath *string `json:"backdrop_path,omitempty" yaml:"backdrop_path,omitempty"`
}

func (Collection) TableName() string { return "collection" }

type ProductionCompany struct {
	ID            uint    `gorm:"primaryKey" json:"id" yaml:"id"`
	RemoteID      int     `gorm:"index" json:"remote_id" yaml:"remote_id"`
	Name          string  `gorm:"not null" json:"name" yaml:"name"`
	OriginCountry string  `json:"origin_country" yaml:"origin_country"`
	LogoPath      *string `json:"logo_path,omitempty" yaml:"logo_path,omitempty"`
}

func (ProductionCompany) TableName() string { return "production_company" }

type ProductionCountry struct {
	ID       uint   `gorm:"primaryKey" json:"id" yaml:"id"`
	ISO31661 string `gorm:"column:iso_3166_1;index" json:"iso_3166_1" yaml:"iso_3166_1"`
	Name     string `gorm:"not null" json:"name" yaml:"name"`
}

func (ProductionCountry) TableName() string { return "production_country" }

type SpokenLanguage struct {
	ID          uint   `gorm:"primaryKey" json:"id" yaml:"id"`
	ISO6391     string `gorm:"column:iso_639_1;index" json:"iso_639_1" yaml:"iso_639_1"`
	Name        string `gorm:"not null" json:"name" yaml:"name"`
	EnglishName string `json:"english_name" yaml:"english_name"`
}

func (SpokenLanguage) TableName() string { return "spoken_language" }

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Collection{},
		&Genre{},
		&ProductionCompany{},
		&ProductionCountry{},
		&SpokenLanguage{},
		&Movie{},
	}
}
