package metadata_test

import (
	"testing"

	"github.com/falkben/media-organizer/pkg/core/metadata"
	"github.com/stretchr/testify/assert"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		path  string
		title string
		year  string
	}{
		{"The Matrix (1999)", "The Matrix", "1999"},
		{"The Matrix", "The Matrix", ""},
		{"/movies/Inception.mkv", "Inception", ""},
		{"/movies/Dune (2021).mkv", "Dune", "2021"},
		{"Dune.mkv", "Dune", ""},
		// First match wins and is removed exactly once.
		{"Blade Runner (1982) (2007).mkv", "Blade Runner (2007)", "1982"},
		{"Twins (1988) (1988).avi", "Twins (1988)", "1988"},
		// No trimming beyond the removal.
		{"Alien (1979) Director's Cut.mkv", "Alien Director's Cut", "1979"},
		{" (2001).mkv", "", "2001"},
		// Not the strict pattern.
		{"The Matrix(1999).mkv", "The Matrix(1999)", ""},
		{"The Matrix (99).mkv", "The Matrix (99)", ""},
		{"The Matrix (19999).mkv", "The Matrix (19999)", ""},
		{"The.Matrix.1999.1080p.mkv", "The.Matrix.1999.1080p", ""},
		// Only the last extension is dropped; the year may sit mid-name.
		{"Heat (1995).part1.mkv", "Heat.part1", "1995"},
		{".hidden", ".hidden", ""},
		{"", "", ""},
		{"/movies/", "movies", ""},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			parsed := metadata.ParsePath(tc.path)
			assert.Equal(t, tc.title, parsed.Title)
			assert.Equal(t, tc.year, parsed.Year)
			assert.Equal(t, tc.year != "", parsed.HasYear())
		})
	}
}

func TestParser_StrictByDefault(t *testing.T) {
	var p metadata.Parser
	parsed := p.Parse("/movies/The.Matrix.1999.1080p.BluRay.x264.mkv")
	assert.Equal(t, "The.Matrix.1999.1080p.BluRay.x264", parsed.Title)
	assert.False(t, parsed.HasYear())
}

func TestParser_ReleaseNames(t *testing.T) {
	p := metadata.Parser{ReleaseNames: true}

	t.Run("release name fallback", func(t *testing.T) {
		parsed := p.Parse("/movies/The.Matrix.1999.1080p.BluRay.x264.mkv")
		assert.Equal(t, "The Matrix", parsed.Title)
		assert.Equal(t, "1999", parsed.Year)
	})

	t.Run("strict pattern takes precedence", func(t *testing.T) {
		parsed := p.Parse("/movies/The Matrix (1999).mkv")
		assert.Equal(t, "The Matrix", parsed.Title)
		assert.Equal(t, "1999", parsed.Year)
	})
}
