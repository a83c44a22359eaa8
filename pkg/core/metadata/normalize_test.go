package metadata_test

import (
	"errors"
	"testing"
	"time"

	coreErrors "github.com/falkben/media-organizer/pkg/core/errors"
	"github.com/falkben/media-organizer/pkg/core/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func matrixRecord() *metadata.Record {
	budget := int64(63000000)
	popularity := 83.5
	adult := false
	return &metadata.Record{
		RemoteID:      603,
		Title:         strPtr("The Matrix"),
		OriginalTitle: strPtr("The Matrix"),
		ReleaseDate:   strPtr("1999-03-30"),
		Runtime:       intPtr(136),
		Budget:        &budget,
		Popularity:    &popularity,
		Adult:         &adult,
		IMDbID:        strPtr("tt0133093"),
		Genres: []metadata.GenreRecord{
			{ID: 28, Name: "Action"},
			{ID: 878, Name: "Science Fiction"},
		},
		Collection: &metadata.CollectionRecord{ID: 2344, Name: "The Matrix Collection", PosterPath: strPtr("/poster.jpg")},
		ProductionCompanies: []metadata.CompanyRecord{
			{ID: 79, Name: "Village Roadshow Pictures", OriginCountry: "US", LogoPath: strPtr("/logo.png")},
		},
		ProductionCountries: []metadata.CountryRecord{{ISO31661: "US", Name: "United States of America"}},
		SpokenLanguages:     []metadata.LanguageRecord{{ISO6391: "en", Name: "English", EnglishName: "English"}},
	}
}

func TestNormalize_FullRecord(t *testing.T) {
	norm, err := metadata.Normalize(matrixRecord())
	require.NoError(t, err)

	movie := norm.Movie
	assert.Zero(t, movie.ID, "local id is assigned by the store")
	assert.Equal(t, 603, movie.RemoteID)
	assert.Equal(t, "The Matrix", movie.Title)
	require.NotNil(t, movie.ReleaseDate)
	assert.Equal(t, time.Date(1999, 3, 30, 0, 0, 0, 0, time.UTC), *movie.ReleaseDate)
	assert.Equal(t, 136, *movie.Runtime)
	assert.Equal(t, int64(63000000), *movie.Budget)
	assert.Equal(t, 83.5, *movie.Popularity)
	assert.False(t, *movie.Adult)
	assert.Nil(t, movie.Revenue, "absent scalars stay absent")
	assert.Nil(t, movie.Tagline)
	assert.Empty(t, movie.Genres, "associations are carried separately")

	require.Len(t, norm.Genres, 2)
	assert.Equal(t, 28, norm.Genres[0].RemoteID)
	assert.Equal(t, "Science Fiction", norm.Genres[1].Name)

	require.NotNil(t, norm.Collection)
	assert.Equal(t, 2344, norm.Collection.RemoteID)
	assert.Equal(t, "/poster.jpg", *norm.Collection.PosterPath)
	assert.Nil(t, norm.Collection.BackdropPath)

	require.Len(t, norm.ProductionCompanies, 1)
	assert.Equal(t, "US", norm.ProductionCompanies[0].OriginCountry)
	require.Len(t, norm.ProductionCountries, 1)
	assert.Equal(t, "US", norm.ProductionCountries[0].ISO31661)
	require.Len(t, norm.SpokenLanguages, 1)
	assert.Equal(t, "en", norm.SpokenLanguages[0].ISO6391)
}

func TestNormalize_NoCollectionAndEmptyDate(t *testing.T) {
	rec := matrixRecord()
	rec.Collection = nil
	rec.ReleaseDate = strPtr("")

	norm, err := metadata.Normalize(rec)
	require.NoError(t, err)
	assert.Nil(t, norm.Collection)
	assert.Nil(t, norm.Movie.ReleaseDate)
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *metadata.Record)
		errMsg string
	}{
		{"missing title", func(r *metadata.Record) { r.Title = nil }, "has no title"},
		{"blank title", func(r *metadata.Record) { r.Title = strPtr("  ") }, "has no title"},
		{"missing remote id", func(r *metadata.Record) { r.RemoteID = 0 }, "missing remote id"},
		{"bad release date", func(r *metadata.Record) { r.ReleaseDate = strPtr("30/03/1999") }, "bad release_date"},
		{"genre without name", func(r *metadata.Record) { r.Genres[1].Name = "" }, "genres[1]"},
		{"collection without name", func(r *metadata.Record) { r.Collection.Name = "" }, "belongs_to_collection"},
		{"company without name", func(r *metadata.Record) { r.ProductionCompanies[0].Name = "" }, "production_companies[0]"},
		{"country without code", func(r *metadata.Record) { r.ProductionCountries[0].ISO31661 = "" }, "production_countries[0]"},
		{"language without code", func(r *metadata.Record) { r.SpokenLanguages[0].ISO6391 = "" }, "spoken_languages[0]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := matrixRecord()
			tc.mutate(rec)

			norm, err := metadata.Normalize(rec)
			require.Error(t, err)
			assert.Nil(t, norm)
			assert.True(t, errors.Is(err, coreErrors.ErrInvalidRecord))
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	t.Run("nil record", func(t *testing.T) {
		_, err := metadata.Normalize(nil)
		assert.ErrorIs(t, err, coreErrors.ErrInvalidRecord)
	})
}

func TestNormalize_LanguageWithoutNativeName(t *testing.T) {
	rec := matrixRecord()
	rec.SpokenLanguages = []metadata.LanguageRecord{{ISO6391: "xx", EnglishName: "No Language"}}

	norm, err := metadata.Normalize(rec)
	require.NoError(t, err)
	require.Len(t, norm.SpokenLanguages, 1)
	assert.Equal(t, "No Language", norm.SpokenLanguages[0].EnglishName)
	assert.Empty(t, norm.SpokenLanguages[0].Name)
}
