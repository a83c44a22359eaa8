package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/falkben/media-organizer/pkg/core/metadata"
	"github.com/falkben/media-organizer/pkg/core/tmdb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	ingestID       int
	ingestFromFile string
	ingestSave     string
)

// rawFetcher is implemented by providers that can return the undecoded
// record document, which is what --save writes.
type rawFetcher interface {
	FetchRaw(ctx context.Context, remoteID int) ([]byte, error)
}

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Store one TMDB movie record in the local database",
	Long: `Fetches a movie by TMDB id, or loads a cached TMDB movie JSON document,
and stores it with its related genres, collection, companies, countries and
languages. No local lookup is made first.

Examples:
  media-organizer ingest --id 603 --save example_movie_info.json
  media-organizer ingest --from-file example_movie_info.json`,
	RunE: runIngest,
}

func init() {
	RootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().IntVar(&ingestID, "id", 0, "TMDB movie id to fetch")
	ingestCmd.Flags().StringVar(&ingestFromFile, "from-file", "", "Load a cached TMDB movie JSON document instead of fetching")
	ingestCmd.Flags().StringVar(&ingestSave, "save", "", "Write the fetched TMDB document to this file")
	ingestCmd.MarkFlagsMutuallyExclusive("id", "from-file")
	ingestCmd.MarkFlagsMutuallyExclusive("from-file", "save")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestID <= 0 && ingestFromFile == "" {
		return fmt.Errorf("one of --id or --from-file must be provided")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var rec *metadata.Record
	if ingestFromFile != "" {
		rec, err = loadRecord(ingestFromFile)
	} else {
		rec, err = fetchRecord(ctx, s.org.Provider(), ingestID, ingestSave, s.logger)
	}
	if err != nil {
		return err
	}

	movie, err := s.org.IngestRecord(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to store movie %d: %w", rec.RemoteID, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored movie %d:\n", movie.ID)
	printMovie(cmd.OutOrStdout(), movie)
	return nil
}

func loadRecord(path string) (*metadata.Record, error) {
	// #nosec G304 - path is an explicit user argument
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rec, err := tmdb.DecodeRecord(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rec, nil
}

// fetchRecord fetches remoteID and, when savePath is set, caches the document.
func fetchRecord(ctx context.Context, provider metadata.Provider, remoteID int, savePath string, logger *logrus.Logger) (*metadata.Record, error) {
	raw, canRaw := provider.(rawFetcher)
	if savePath == "" || !canRaw {
		rec, err := provider.Fetch(ctx, remoteID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch movie %d: %w", remoteID, err)
		}
		if savePath != "" {
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return nil, err
			}
			if err := writeCache(savePath, data); err != nil {
				return nil, err
			}
		}
		return rec, nil
	}

	data, err := raw.FetchRaw(ctx, remoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movie %d: %w", remoteID, err)
	}
	if err := writeCache(savePath, data); err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"file": savePath, "remote_id": remoteID}).Info("Saved TMDB document")
	return loadRecord(savePath)
}

func writeCache(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
