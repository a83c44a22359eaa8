package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/falkben/media-organizer/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve resolution and lookups over HTTP",
	Long: `Starts an HTTP server exposing:

  GET /resolve?path=...          resolve a movie file path
  GET /movies?title=...&year=... local lookup (lists movies without title)
  GET /movies/{id}               movie by local id
  GET /healthz                   database health`,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from server.addr, :8080)")
	_ = viper.BindPFlag(CfgKeyServerAddr, serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(s.org.Resolver(), s.org.Store(), server.Options{
		RequestTimeout: viper.GetDuration(CfgKeyResolveTimeout),
		Logger:         s.logger,
	})
	return srv.ListenAndServe(ctx, viper.GetString(CfgKeyServerAddr))
}
