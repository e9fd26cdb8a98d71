package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"studiod/internal/config"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	addr       string
	workspace  string
	logLevel   string
	logFormat  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "studiod",
		Short:         "Control panel for an art server pod",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv("STUDIOD_CONFIG"), "Config file (.yaml, .json or .toml)")
	pf.StringVar(&opts.addr, "addr", "", "HTTP listen address, e.g. :8080")
	pf.StringVar(&opts.workspace, "workspace", "", "Workspace root holding ComfyUI, output and status folders")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: json|console")

	root.AddCommand(
		newServeCommand(opts),
		newItemsCommand(opts),
		newStatusCommand(opts),
		newHashPasswordCommand(),
	)
	return root
}

// loadConfig resolves file, then environment, then flags, then defaults.
func (o *options) loadConfig() (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	cfg = cfg.ApplyEnv(os.LookupEnv)
	if o.addr != "" {
		cfg.Addr = o.addr
	}
	if o.workspace != "" {
		cfg.Workspace = o.workspace
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	return cfg.WithDefaults(), nil
}
