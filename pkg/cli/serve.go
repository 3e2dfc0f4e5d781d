package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/userdesk/userdesk/pkg/logging"
	"github.com/userdesk/userdesk/pkg/metrics"
	"github.com/userdesk/userdesk/pkg/usersapi"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	host    string
	port    int
	seed    string
	logFile string
}

func newServeCmd(a *app) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local in-memory users resource",
		Long: `Run a local in-memory users resource with the same REST surface the CLI talks to:

  GET    /users
  POST   /users
  GET    /users/{id}
  PUT    /users/{id}
  DELETE /users/{id}

Prometheus metrics are served on /metrics and a health check on /health.
Data lives in memory only and is lost on exit.

Examples:
  # Default port
  userdesk serve

  # Seeded with users from a YAML file
  userdesk serve --port 4300 --seed users.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				opts.port = a.cfg.ServePort
			}
			return a.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "localhost", "Interface to listen on")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from config, 4300)")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "YAML file with initial users")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, opts serveOptions) error {
	logger := a.logger
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logger = logging.New(logging.Config{
			Level:  logging.ParseLevel(a.cfg.LogLevel),
			Format: logging.ParseFormat(a.cfg.LogFormat),
			Output: cmd.ErrOrStderr(),
			Tee:    f,
		})
	}

	resource := usersapi.NewResource()
	if opts.seed != "" {
		users, err := usersapi.LoadSeed(opts.seed)
		if err != nil {
			return err
		}
		if err := resource.Seed(users); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
	}

	srv := usersapi.New(
		usersapi.WithResource(resource),
		usersapi.WithMetrics(metrics.NewAPIRegistry()),
		usersapi.WithLogger(logger),
	)
	if err := srv.Start(net.JoinHostPort(opts.host, strconv.Itoa(opts.port))); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "userdesk users API started")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Users:   http://%s/users (%d seeded)\n", srv.Addr(), resource.Len())
	fmt.Fprintf(w, "  Metrics: http://%s/metrics\n", srv.Addr())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Press Ctrl+C to stop")

	<-commandContext(cmd).Done()

	fmt.Fprintln(w, "\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop users API: %w", err)
	}
	fmt.Fprintln(w, "Server stopped")
	return nil
}
