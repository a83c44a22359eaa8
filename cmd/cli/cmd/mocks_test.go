package cmd_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	clicmd "github.com/falkben/media-organizer/cmd/cli/cmd"
	"github.com/falkben/media-organizer/pkg/core/metadata"
	"github.com/falkben/media-organizer/pkg/core/tmdb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of metadata.Provider using testify/mock
type MockProvider struct {
	mock.Mock
}

// Ensure MockProvider satisfies the interface defined in metadata
var _ metadata.Provider = (*MockProvider)(nil)

func (m *MockProvider) Search(ctx context.Context, title, year string) ([]metadata.Candidate, error) {
	args := m.Called(ctx, title, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]metadata.Candidate), args.Error(1)
}

func (m *MockProvider) Fetch(ctx context.Context, remoteID int) (*metadata.Record, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metadata.Record), args.Error(1)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func matrixRecord() *metadata.Record {
	return &metadata.Record{
		RemoteID:    603,
		Title:       strPtr("The Matrix"),
		ReleaseDate: strPtr("1999-03-30"),
		Runtime:     intPtr(136),
		Tagline:     strPtr("Welcome to the Real World."),
		IMDbID:      strPtr("tt0133093"),
		PosterPath:  strPtr("/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg"),
		Genres: []metadata.GenreRecord{
			{ID: 28, Name: "Action"},
			{ID: 878, Name: "Science Fiction"},
		},
		Collection: &metadata.CollectionRecord{ID: 2344, Name: "The Matrix Collection"},
	}
}

// testEnv points the CLI at a temporary database and lock directory.
type testEnv struct {
	dbPath  string
	lockDir string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	return testEnv{dbPath: filepath.Join(dir, "movies.db"), lockDir: filepath.Join(dir, "locks")}
}

// executeCommand runs the root command with args and a mock provider.
func executeCommand(t *testing.T, env testEnv, provider metadata.Provider, args ...string) (string, string, error) {
	t.Helper()

	// Store original provider creation function
	originalNewProviderFunc := clicmd.NewProviderFunc
	defer func() { clicmd.NewProviderFunc = originalNewProviderFunc }()

	clicmd.NewProviderFunc = func(cfg tmdb.Config, logger *logrus.Logger) (metadata.Provider, error) {
		assert.Equal(t, "test-api-key", cfg.APIKey, "API key should come from config")
		return provider, nil
	}

	settings := map[string]interface{}{
		clicmd.CfgKeyTMDBAPIKey: "test-api-key",
		clicmd.CfgKeyDBDSN:      env.dbPath,
		clicmd.CfgKeyLockDir:    env.lockDir,
		clicmd.CfgKeyLogLevel:   "error",
	}
	for key, value := range settings {
		original := viper.Get(key)
		viper.Set(key, value)
		defer viper.Set(key, original)
	}

	outBuf := bytes.NewBufferString("")
	errBuf := bytes.NewBufferString("")
	clicmd.RootCmd.SetOut(outBuf)
	clicmd.RootCmd.SetErr(errBuf)
	clicmd.RootCmd.SetArgs(args)

	err := clicmd.RootCmd.Execute()

	// Reset args and flags so the next test starts clean
	clicmd.RootCmd.SetArgs([]string{})
	resetFlags(clicmd.RootCmd)
	return outBuf.String(), errBuf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
