package cmd

import (
	"errors"
	"fmt"

	coreErrors "github.com/falkben/media-organizer/pkg/core/errors"
	"github.com/spf13/cobra"
)

var (
	showYear   string
	showOutput string
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show TITLE",
	Short: "Show a movie from the local database",
	Long: `Looks a movie up by exact title, and optionally year, in the local
database only. TMDB is never queried.

Examples:
  media-organizer show "The Matrix"
  media-organizer show Dune --year 2021 --output yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showYear, "year", "y", "", "Release year (YYYY)")
	showCmd.Flags().StringVarP(&showOutput, "output", "o", outputText, "Output format (text, json, yaml)")
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := validateOutput(showOutput); err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	movie, err := s.org.FindMovie(ctx, args[0], showYear)
	switch {
	case errors.Is(err, coreErrors.ErrNotFound):
		fmt.Fprintf(cmd.OutOrStdout(), "not found: %s\n", args[0])
		return nil
	case errors.Is(err, coreErrors.ErrAmbiguousResult):
		return fmt.Errorf("several movies are titled %q, narrow it down with --year", args[0])
	case err != nil:
		return err
	}

	if showOutput != outputText {
		return writeStructured(cmd.OutOrStdout(), showOutput, movie)
	}
	printMovie(cmd.OutOrStdout(), movie)
	return nil
}
