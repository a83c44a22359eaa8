package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/falkben/media-organizer/pkg/processor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	scanRecursive bool
	scanOutput    string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [DIR]",
	Short: "Resolve every movie file in a directory",
	Long: `Walks DIR (default: movies.root from the config, or MOVIES_FILEPATH) for
video files and resolves each one. A failure on one file is reported and the
scan continues.

Examples:
  media-organizer scan /mnt/media/movies
  media-organizer scan --recursive=false --release-names ~/Downloads`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	RootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", true, "Descend into subdirectories")
	scanCmd.Flags().Bool("release-names", false, "Fall back to scene release name parsing (The.Movie.1999.1080p)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", outputText, "Output format (text, json, yaml)")
	_ = viper.BindPFlag(CfgKeyReleaseNames, scanCmd.Flags().Lookup("release-names"))
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := validateOutput(scanOutput); err != nil {
		return err
	}

	root := viper.GetString(CfgKeyMoviesRoot)
	if len(args) == 1 {
		root = args[0]
	}
	if root == "" {
		return fmt.Errorf("no directory given. Pass DIR or set %s (MOVIES_FILEPATH)", CfgKeyMoviesRoot)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := s.org.ResolveDirectory(ctx, root, scanRecursive)
	if err != nil {
		return fmt.Errorf("scan of %s failed: %w", root, err)
	}

	out := cmd.OutOrStdout()
	if scanOutput != outputText {
		return writeStructured(out, scanOutput, report)
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *processor.Report) {
	out := cmd.OutOrStdout()
	for _, item := range report.Items {
		name := filepath.Base(item.Path)
		switch {
		case item.Error != "":
			fmt.Fprintf(out, "[error]     %s: %s\n", name, item.Error)
		case item.Resolution.Found():
			m := item.Resolution.Movie
			fmt.Fprintf(out, "[%-9s] %s -> %s (id %d)\n", item.Resolution.Outcome, name, m.Title, m.ID)
		default:
			fmt.Fprintf(out, "[not_found] %s\n", name)
		}
	}
	fmt.Fprintf(out, "Scanned %d files in %s: %d local, %d fetched, %d not found, %d failed\n",
		len(report.Items), report.Root, report.LocalHit, report.Fetched, report.NotFound, report.Failed)
}
