package cmd

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	searchQuery  string
	searchYear   string
	searchLimit  int
	searchOutput string
)

var yearFlagPattern = regexp.MustCompile(`^[0-9]{4}$`)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search TMDB for movies",
	Long: `Searches TMDB by title, and optionally year, without touching the local
database.

Examples:
  media-organizer search --query "The Matrix"
  media-organizer search -q Dune --year 2021`,
	RunE: runSearch,
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Movie title to search for")
	searchCmd.Flags().StringVarP(&searchYear, "year", "y", "", "Release year (YYYY)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results to show (0 for all)")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", outputText, "Output format (text, json, yaml)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Input validation
	if searchQuery == "" {
		return fmt.Errorf("--query must be provided")
	}
	if searchYear != "" && !yearFlagPattern.MatchString(searchYear) {
		return fmt.Errorf("invalid --year: %s. Must be four digits", searchYear)
	}
	if err := validateOutput(searchOutput); err != nil {
		return err
	}

	logger, closer, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	provider, err := newProvider(logger)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"query": searchQuery,
		"year":  searchYear,
	}).Debug("Searching movies...")

	ctx, cancel := commandContext(cmd)
	defer cancel()
	results, err := provider.Search(ctx, searchQuery, searchYear)
	if err != nil {
		logger.WithError(err).Error("Movie search failed")
		return fmt.Errorf("movie search failed: %w", err)
	}

	shown := results
	if searchLimit > 0 && len(shown) > searchLimit {
		shown = shown[:searchLimit]
	}

	out := cmd.OutOrStdout()
	if searchOutput != outputText {
		return writeStructured(out, searchOutput, shown)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No movies found matching the criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d movies (showing %d):\n", len(results), len(shown))
	fmt.Fprintln(out, "--------------------------------------------------")
	for _, c := range shown {
		fmt.Fprintf(out, "Movie title: %s\n", c.Title)
		fmt.Fprintf(out, "  TMDB ID: %d\n", c.RemoteID)
		if c.ReleaseDate != "" {
			fmt.Fprintf(out, "  Release date: %s\n", c.ReleaseDate)
		}
		if c.OriginalTitle != "" && c.OriginalTitle != c.Title {
			fmt.Fprintf(out, "  Original title: %s\n", c.OriginalTitle)
		}
		fmt.Fprintln(out, "--------------------------------------------------")
	}
	return nil
}
