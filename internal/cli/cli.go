package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alpindale/tinyscripts/internal"
	"github.com/alpindale/tinyscripts/internal/config"
	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/alpindale/tinyscripts/internal/httpjson"
	"github.com/alpindale/tinyscripts/internal/logging"
	"github.com/alpindale/tinyscripts/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Env is what every command gets once flags are parsed.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *httpjson.Client
}

// Setup loads the config and builds the logger and HTTP client.
func Setup(configPath string, verbose bool) (*Env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.JSON, verbose)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	hc := httpjson.New(
		httpjson.WithTimeout(timeout),
		httpjson.WithUserAgent(internal.UserAgent()),
		httpjson.WithLogger(logger),
	)
	return &Env{Config: cfg, Logger: logger, HTTP: hc}, nil
}

func (e *Env) Close() {
	if e != nil && e.Logger != nil {
		_ = e.Logger.Sync()
	}
}

// AddCommonFlags registers --config and --verbose.
func AddCommonFlags(cmd *cobra.Command, configPath *string, verbose *bool) {
	cmd.PersistentFlags().StringVar(configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.Version = internal.FullVersion()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
}

// Run executes cmd with SIGINT/SIGTERM wired to its context and returns the
// process exit status.
func Run(cmd *cobra.Command, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprint(stderr, ui.RenderError(err))
	if ctx.Err() != nil {
		return 130
	}
	return failure.ExitCode(err)
}
