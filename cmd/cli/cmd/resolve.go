package cmd

import (
	"fmt"

	"github.com/falkben/media-organizer/pkg/resolver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var resolveOutput string

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve PATH...",
	Short: "Resolve movie files to their metadata",
	Long: `Resolves each movie file path to its TMDB metadata. The local database is
checked first; TMDB is only queried on a miss and the result is stored.

The title and year come from the file name, e.g. "/movies/Heat (1995).mkv".

Examples:
  media-organizer resolve "/movies/Heat (1995).mkv"
  media-organizer resolve --output json "Inception (2010).mkv" "Dune.mkv"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	RootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", outputText, "Output format (text, json, yaml)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	if err := validateOutput(resolveOutput); err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	var results []*resolver.Resolution
	failed := 0
	for _, path := range args {
		ctx, cancel := commandContext(cmd)
		res, err := s.org.Resolve(ctx, path)
		cancel()
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{"path": path}).Error("Resolution failed")
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", path, err)
			failed++
			continue
		}

		if resolveOutput != outputText {
			results = append(results, res)
			continue
		}
		if !res.Found() {
			fmt.Fprintf(out, "not found: %s\n", path)
			continue
		}
		printMovie(out, res.Movie)
		fmt.Fprintf(out, "  Source: %s\n", res.Outcome)
	}

	if resolveOutput != outputText {
		if err := writeStructured(out, resolveOutput, results); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d paths failed to resolve", failed, len(args))
	}
	return nil
}
