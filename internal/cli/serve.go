package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/opencode-ai/nbtemplates/internal/placeholder"
	"github.com/opencode-ai/nbtemplates/internal/server"
	"github.com/opencode-ai/nbtemplates/internal/templates"
	"github.com/spf13/cobra"
)

var (
	serveHost    string
	servePort    int
	serveBaseURL string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "URL prefix of the template endpoints")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve templates over HTTP",
	Long:  "Serve template names, template contents and the tutorial path over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	opts := server.Options{
		Hostname:        appCfg.Server.Host,
		Port:            appCfg.Server.Port,
		BaseURL:         appCfg.Server.BaseURL,
		ShutdownTimeout: appCfg.Server.ShutdownTimeout,
	}
	if serveHost != "" {
		opts.Hostname = serveHost
	}
	if servePort != 0 {
		opts.Port = servePort
	}
	if serveBaseURL != "" {
		opts.BaseURL = serveBaseURL
	}

	authenticator, err := newAuthenticator()
	if err != nil {
		return err
	}

	svc := newService()
	logStartup(svc)

	limit := appCfg.Server.RateLimit
	limiter := server.NewRateLimiter(
		server.WithEnabled(limit.Enabled),
		server.WithDefaultLimit(server.RateLimitConfig{
			RequestsPerSecond: limit.RequestsPerSecond,
			BurstSize:         limit.Burst,
		}),
	)

	srv, err := server.New(svc, logger, opts,
		server.WithAuthenticator(authenticator),
		server.WithRateLimiter(limiter),
	)
	if err != nil {
		return err
	}

	logger.Info().Str("path", srv.URL("templates")).Msg("installing template handlers")
	return srv.Run(ctx)
}

func logStartup(svc *templates.Service) {
	paths := templates.RootPaths(svc.Roots())
	logger.Info().Msgf("search paths:\n\t%s", strings.Join(paths, "\n\t"))

	names, err := svc.ListNames(placeholder.DefaultUsername)
	if err != nil {
		logger.Warn().Err(err).Msg("initial template scan failed")
		return
	}
	logger.Info().Int("count", len(names)).Msgf("available templates:\n\t%s", strings.Join(names, "\n\t"))
}
