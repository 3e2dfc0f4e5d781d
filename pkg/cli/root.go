package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/userdesk/userdesk/pkg/cliconfig"
	"github.com/userdesk/userdesk/pkg/logging"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// app carries the resolved configuration and the persistent flag targets for
// one command tree.
type app struct {
	apiServer string
	json      bool
	logLevel  string
	logFormat string
	timeout   time.Duration

	cfg    *cliconfig.Config
	logger *slog.Logger

	// interactive reports whether huh forms may be shown.
	interactive func() bool
}

// NewRootCommand builds the userdesk command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{
		logger:      logging.Nop(),
		interactive: stdinIsTerminal,
	})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "userdesk",
		Short: "userdesk manages the users of a REST users resource",
		Long: `userdesk lists, adds, edits and deletes users held by a REST users resource.

The resource base URL comes from --api-server, USERDESK_API_SERVER, a .env file,
.userdeskrc.yaml in the current directory, or ~/.config/userdesk/config.yaml.
Run 'userdesk serve' to start a local in-memory users resource.`,
		SilenceUsage:  true,
		SilenceErrors: true, // We handle errors in Execute()
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiServer, "api-server", cliconfig.DefaultAPIServer, "Users resource base URL")
	flags.BoolVar(&a.json, "json", false, "Output command results in JSON format")
	flags.StringVar(&a.logLevel, "log-level", cliconfig.DefaultLogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", cliconfig.DefaultLogFormat, "Log format: text, json")
	flags.DurationVar(&a.timeout, "timeout", cliconfig.DefaultTimeout, "Request timeout for the users resource")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	ctx, stop := signalContext()
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// configure resolves configuration from every source and applies the
// persistent flags the user actually set.
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := cliconfig.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	set := func(name, key string, apply func()) {
		if flags.Changed(name) {
			apply()
			cfg.Sources[key] = cliconfig.SourceFlag
		}
	}
	set("api-server", "api_server", func() { cfg.APIServer = a.apiServer })
	set("timeout", "timeout", func() { cfg.Timeout = a.timeout })
	set("log-level", "log_level", func() { cfg.LogLevel = a.logLevel })
	set("log-format", "log_format", func() { cfg.LogFormat = a.logFormat })
	set("json", "json", func() { cfg.JSON = a.json })

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

func (a *app) jsonOutput() bool {
	return a.cfg != nil && a.cfg.JSON
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
