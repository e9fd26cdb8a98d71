package installer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"studiod/internal/console"
	"studiod/internal/scripts"
	"studiod/internal/status"
	"studiod/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultPluginTimeout = 5 * time.Minute
	defaultModelTimeout  = 30 * time.Minute
	defaultScriptTimeout = 2 * time.Hour
	defaultGitBin        = "git"
)

// Config encapsulates all tunables for Orchestrator construction.
type Config struct {
	Store  *status.Store
	Output *console.Channel
	// Source provides script text for the filtered-subset path.
	Source scripts.Source
	// Checkout fetches the installer repository for whole-component steps.
	// Nil means a GitCheckout of RepoURL.
	Checkout Checkout
	// Downloader fetches model weights. Nil means a resty-backed downloader.
	Downloader Downloader

	RepoURL string
	GitBin  string
	// ComfyDir is the art application root; models are written beneath it
	// and plugins are cloned into its custom_nodes folder.
	ComfyDir string
	// Pip installs plugin requirements. Defaults to <ComfyDir>/.venv/bin/pip.
	Pip string
	// Script paths relative to the checkout root and the raw base URL.
	Scripts map[types.Component]string

	PluginTimeout time.Duration
	ModelTimeout  time.Duration
	ScriptTimeout time.Duration

	Publisher EventPublisher
	Logger    *zerolog.Logger
}

// DefaultScripts maps each component to its installer script.
func DefaultScripts() map[types.Component]string {
	return map[types.Component]string{
		types.ComponentComfyApp: "installer/install_comfyui.sh",
		types.ComponentModels:   "installer/install_models.sh",
		types.ComponentPlugins:  "installer/install_nodes.sh",
	}
}

// New constructs an Orchestrator from Config.
func New(cfg Config) *Orchestrator {
	if cfg.Output == nil {
		cfg.Output = console.New()
	}
	if cfg.GitBin == "" {
		cfg.GitBin = defaultGitBin
	}
	if cfg.Pip == "" {
		cfg.Pip = "pip"
		if cfg.ComfyDir != "" {
			cfg.Pip = filepath.Join(cfg.ComfyDir, ".venv", "bin", "pip")
		}
	}
	if cfg.Scripts == nil {
		cfg.Scripts = DefaultScripts()
	}
	if cfg.PluginTimeout <= 0 {
		cfg.PluginTimeout = defaultPluginTimeout
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = defaultModelTimeout
	}
	if cfg.ScriptTimeout <= 0 {
		cfg.ScriptTimeout = defaultScriptTimeout
	}
	if cfg.Checkout == nil {
		cfg.Checkout = GitCheckout{Git: cfg.GitBin, RepoURL: cfg.RepoURL}
	}
	if cfg.Downloader == nil {
		cfg.Downloader = NewHTTPDownloader()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:    cfg,
		out:    cfg.Output,
		log:    log.With().Str("component", "installer").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}
