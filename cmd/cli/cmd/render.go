package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/falkben/media-organizer/internal/constants"
	"github.com/falkben/media-organizer/pkg/core/models"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("invalid --output: %s. Must be one of: text, json, yaml", format)
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported structured format %q", format)
	}
}

// printMovie writes the human readable summary of a stored movie.
func printMovie(w io.Writer, m *models.Movie) {
	if year := m.ReleaseYear(); year > 0 {
		fmt.Fprintf(w, "%s (%d)\n", m.Title, year)
	} else {
		fmt.Fprintln(w, m.Title)
	}
	fmt.Fprintf(w, "  ID: %d (TMDB %d)\n", m.ID, m.RemoteID)
	if m.ReleaseDate != nil {
		fmt.Fprintf(w, "  Released: %s\n", m.ReleaseDate.Format("Jan 02, 2006"))
	}
	if m.Runtime != nil && *m.Runtime > 0 {
		fmt.Fprintf(w, "  Runtime: %d min\n", *m.Runtime)
	}
	if len(m.Genres) > 0 {
		names := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			names = append(names, g.Name)
		}
		fmt.Fprintf(w, "  Genres: %s\n", strings.Join(names, ", "))
	}
	if m.Collection != nil {
		fmt.Fprintf(w, "  Collection: %s\n", m.Collection.Name)
	}
	if m.IMDbID != nil && *m.IMDbID != "" {
		fmt.Fprintf(w, "  IMDb: %s\n", *m.IMDbID)
	}
	if m.Tagline != nil && *m.Tagline != "" {
		fmt.Fprintf(w, "  Tagline: %s\n", *m.Tagline)
	}
	if m.PosterPath != nil && *m.PosterPath != "" {
		fmt.Fprintf(w, "  Poster: %s%s\n", constants.ImageBaseURL, *m.PosterPath)
	}
	if m.BackdropPath != nil && *m.BackdropPath != "" {
		fmt.Fprintf(w, "  Backdrop: %s%s\n", constants.ImageBaseURL, *m.BackdropPath)
	}
}
