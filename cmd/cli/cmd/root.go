package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	mediaorganizer "github.com/falkben/media-organizer"
	"github.com/falkben/media-organizer/internal/logging"
	"github.com/falkben/media-organizer/pkg/core/metadata"
	"github.com/falkben/media-organizer/pkg/core/tmdb"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Define configuration keys
const (
	CfgKeyTMDBAPIKey     = "tmdb.apikey"
	CfgKeyTMDBBaseURL    = "tmdb.baseurl"
	CfgKeyTMDBLanguage   = "tmdb.language"
	CfgKeyTMDBRetries    = "tmdb.retries"
	CfgKeyTMDBTimeout    = "tmdb.timeout"
	CfgKeyMoviesRoot     = "movies.root"
	CfgKeyDBDriver       = "db.driver"
	CfgKeyDBDSN          = "db.dsn"
	CfgKeyLogLevel       = "log.level"
	CfgKeyLogFile        = "log.file"
	CfgKeyLogMaxSize     = "log.maxsize"
	CfgKeyLogMaxBackups  = "log.maxbackups"
	CfgKeyLogMaxAge      = "log.maxage"
	CfgKeyReleaseNames   = "parser.release_names"
	CfgKeyResolveTimeout = "resolve.timeout"
	CfgKeyLockDir        = "lock.dir"
	CfgKeyLockTimeout    = "lock.timeout"
	CfgKeyServerAddr     = "server.addr"
)

// NewProviderFunc allows overriding the metadata provider creation for testing.
var NewProviderFunc = func(cfg tmdb.Config, logger *logrus.Logger) (metadata.Provider, error) {
	client, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

var (
	// Used for flags.
	cfgFile string

	// RootCmd represents the base command when called without any subcommands
	// Exported for use in tests
	RootCmd = &cobra.Command{
		Use:   "media-organizer",
		Short: "Resolve movie files to TMDB metadata kept in a local database.",
		Long: `media-organizer maps movie files named like "Title (Year).ext" to full
TMDB metadata. Lookups hit the local database first and only query TMDB on a
miss; fetched records are stored with their genres, collection, production
companies, countries and spoken languages.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.media-organizer/config.yaml or ./config.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-file", "", "also write logs to this file, rotated")
	RootCmd.PersistentFlags().String("db", "", "database file (sqlite) or DSN (postgres)")
	RootCmd.PersistentFlags().String("db-driver", "", "database driver: sqlite or postgres")

	_ = viper.BindPFlag(CfgKeyLogLevel, RootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(CfgKeyLogFile, RootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag(CfgKeyDBDSN, RootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag(CfgKeyDBDriver, RootCmd.PersistentFlags().Lookup("db-driver"))

	viper.SetDefault(CfgKeyDBDriver, "sqlite")
	viper.SetDefault(CfgKeyTMDBRetries, 0)
	viper.SetDefault(CfgKeyTMDBTimeout, 15*time.Second)
	viper.SetDefault(CfgKeyLogMaxSize, 10)
	viper.SetDefault(CfgKeyLogMaxBackups, 3)
	viper.SetDefault(CfgKeyLogMaxAge, 28)
	viper.SetDefault(CfgKeyResolveTimeout, 30*time.Second)
	viper.SetDefault(CfgKeyLockTimeout, 2*time.Minute)
	viper.SetDefault(CfgKeyServerAddr, ":8080")
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// .env values never override variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error reading .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".media-organizer"))
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("MEDIAORG") // e.g. MEDIAORG_TMDB_APIKEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// Names used by earlier tooling.
	_ = viper.BindEnv(CfgKeyTMDBAPIKey, "MEDIAORG_TMDB_APIKEY", "TMDB_API_KEY")
	_ = viper.BindEnv(CfgKeyMoviesRoot, "MEDIAORG_MOVIES_ROOT", "MOVIES_FILEPATH")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			// Config file was found but another error was produced
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

// newLogger builds the command logger from configuration, writing to the
// command's error stream.
func newLogger(cmd *cobra.Command) (*logrus.Logger, io.Closer, error) {
	return logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:      viper.GetString(CfgKeyLogLevel),
		File:       viper.GetString(CfgKeyLogFile),
		MaxSize:    viper.GetInt(CfgKeyLogMaxSize),
		MaxBackups: viper.GetInt(CfgKeyLogMaxBackups),
		MaxAge:     viper.GetInt(CfgKeyLogMaxAge),
	})
}

// newProvider creates the configured metadata provider.
func newProvider(logger *logrus.Logger) (metadata.Provider, error) {
	apiKey := viper.GetString(CfgKeyTMDBAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("TMDB API key not configured. Use the MEDIAORG_TMDB_APIKEY or TMDB_API_KEY env var, .env, or %s in the config file", CfgKeyTMDBAPIKey)
	}
	provider, err := NewProviderFunc(tmdb.Config{
		APIKey:   apiKey,
		BaseURL:  viper.GetString(CfgKeyTMDBBaseURL),
		Language: viper.GetString(CfgKeyTMDBLanguage),
		Timeout:  viper.GetDuration(CfgKeyTMDBTimeout),
		Retries:  viper.GetUint(CfgKeyTMDBRetries),
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize metadata provider")
		return nil, fmt.Errorf("failed to initialize metadata provider: %w", err)
	}
	return provider, nil
}

// session bundles what a command needs and releases it on Close.
type session struct {
	org       *mediaorganizer.Organizer
	logger    *logrus.Logger
	logCloser io.Closer
}

func (s *session) Close() {
	if s.org != nil {
		if err := s.org.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close database")
		}
	}
	_ = s.logCloser.Close()
}

// openSession sets up logging, the provider and the organizer.
func openSession(cmd *cobra.Command) (*session, error) {
	logger, closer, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	s := &session{logger: logger, logCloser: closer}

	provider, err := newProvider(logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	org, err := mediaorganizer.NewWithProvider(mediaorganizer.Config{
		DBDriver:       viper.GetString(CfgKeyDBDriver),
		DBDSN:          viper.GetString(CfgKeyDBDSN),
		LockDir:        viper.GetString(CfgKeyLockDir),
		LockTimeout:    viper.GetDuration(CfgKeyLockTimeout),
		ReleaseNames:   viper.GetBool(CfgKeyReleaseNames),
		ResolveTimeout: viper.GetDuration(CfgKeyResolveTimeout),
		Logger:         logger,
	}, provider)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.org = org
	return s, nil
}

// commandContext bounds a command by resolve.timeout when it is set.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := viper.GetDuration(CfgKeyResolveTimeout); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
