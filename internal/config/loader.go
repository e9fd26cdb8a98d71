package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	Workspace string `json:"workspace" yaml:"workspace" toml:"workspace"`
	StatusDir string `json:"status_dir" yaml:"status_dir" toml:"status_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	ComfyDir  string `json:"comfy_dir" yaml:"comfy_dir" toml:"comfy_dir"`
	PodID     string `json:"pod_id" yaml:"pod_id" toml:"pod_id"`

	// Remote installer sources.
	RepoURL      string `json:"repo_url" yaml:"repo_url" toml:"repo_url"`
	RawBaseURL   string `json:"raw_base_url" yaml:"raw_base_url" toml:"raw_base_url"`
	ComfyScript  string `json:"comfy_script" yaml:"comfy_script" toml:"comfy_script"`
	ModelsScript string `json:"models_script" yaml:"models_script" toml:"models_script"`
	NodesScript  string `json:"nodes_script" yaml:"nodes_script" toml:"nodes_script"`

	// Admin authentication.
	AdminPasswordHash string `json:"admin_password_hash" yaml:"admin_password_hash" toml:"admin_password_hash"`
	TokenSecret       string `json:"token_secret" yaml:"token_secret" toml:"token_secret"`

	// Timeouts in seconds.
	FetchTimeoutSec  int `json:"fetch_timeout_sec" yaml:"fetch_timeout_sec" toml:"fetch_timeout_sec"`
	PluginTimeoutSec int `json:"plugin_timeout_sec" yaml:"plugin_timeout_sec" toml:"plugin_timeout_sec"`
	ModelTimeoutSec  int `json:"model_timeout_sec" yaml:"model_timeout_sec" toml:"model_timeout_sec"`
	ScriptTimeoutSec int `json:"script_timeout_sec" yaml:"script_timeout_sec" toml:"script_timeout_sec"`

	// Child processes.
	GitBin       string `json:"git_bin" yaml:"git_bin" toml:"git_bin"`
	NotebookBin  string `json:"notebook_bin" yaml:"notebook_bin" toml:"notebook_bin"`
	NotebookPort int    `json:"notebook_port" yaml:"notebook_port" toml:"notebook_port"`
	ArtPython    string `json:"art_python" yaml:"art_python" toml:"art_python"`
	ArtPort      int    `json:"art_port" yaml:"art_port" toml:"art_port"`

	// Art server readiness polling.
	ReadyDelaySec    int    `json:"ready_delay_sec" yaml:"ready_delay_sec" toml:"ready_delay_sec"`
	ReadyAttempts    int    `json:"ready_attempts" yaml:"ready_attempts" toml:"ready_attempts"`
	ReadyIntervalSec int    `json:"ready_interval_sec" yaml:"ready_interval_sec" toml:"ready_interval_sec"`
	ProbeTimeoutSec  int    `json:"probe_timeout_sec" yaml:"probe_timeout_sec" toml:"probe_timeout_sec"`
	ProbePath        string `json:"probe_path" yaml:"probe_path" toml:"probe_path"`

	// HTTP surface.
	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	// Logging.
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
	LogFile   string `json:"log_file" yaml:"log_file" toml:"log_file"`
}

// sha256("admin"), the stock panel password.
const defaultAdminHash = "8c6976e5b5410415bde908bd4dee15dfb167a9c873fc4bb8a81f6f2ab448a918"

// Default returns a Config with every field set to its default.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of c with unset fields filled in.
// Directory defaults derive from Workspace, so set it first.
func (c Config) WithDefaults() Config {
	setStr(&c.Addr, ":8080")
	setStr(&c.Workspace, "/workspace")
	setStr(&c.StatusDir, filepath.Join(c.Workspace, ".comfyui-status"))
	setStr(&c.OutputDir, filepath.Join(c.Workspace, "output"))
	setStr(&c.ComfyDir, filepath.Join(c.Workspace, "ComfyUI"))
	setStr(&c.PodID, "localhost")
	setStr(&c.RepoURL, "https://github.com/razvanmatei-sf/comfyui-runpod-manager")
	setStr(&c.RawBaseURL, "https://raw.githubusercontent.com/razvanmatei-sf/comfyui-runpod-manager/main")
	setStr(&c.ComfyScript, "installer/install_comfyui.sh")
	setStr(&c.ModelsScript, "installer/install_models.sh")
	setStr(&c.NodesScript, "installer/install_nodes.sh")
	setStr(&c.AdminPasswordHash, defaultAdminHash)
	setInt(&c.FetchTimeoutSec, 10)
	setInt(&c.PluginTimeoutSec, 300)
	setInt(&c.ModelTimeoutSec, 1800)
	setInt(&c.ScriptTimeoutSec, 7200)
	setStr(&c.GitBin, "git")
	setStr(&c.NotebookBin, "jupyter")
	setInt(&c.NotebookPort, 8888)
	setStr(&c.ArtPython, filepath.Join(c.ComfyDir, ".venv", "bin", "python"))
	setInt(&c.ArtPort, 8188)
	setInt(&c.ReadyDelaySec, 5)
	setInt(&c.ReadyAttempts, 30)
	setInt(&c.ReadyIntervalSec, 1)
	setInt(&c.ProbeTimeoutSec, 2)
	setStr(&c.ProbePath, "/api/prompt")
	setStr(&c.LogLevel, "info")
	setStr(&c.LogFormat, "json")
	return c
}

// UsesDefaultPassword reports whether the stock admin hash is in effect.
func (c Config) UsesDefaultPassword() bool { return c.AdminPasswordHash == defaultAdminHash }

// Seconds converts a *_sec field to a Duration.
func Seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays STUDIOD_* environment variables (and RUNPOD_POD_ID) onto c.
// lookup is os.LookupEnv in production.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) Config {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	str("RUNPOD_POD_ID", &c.PodID)
	str("STUDIOD_ADDR", &c.Addr)
	str("STUDIOD_WORKSPACE", &c.Workspace)
	str("STUDIOD_STATUS_DIR", &c.StatusDir)
	str("STUDIOD_OUTPUT_DIR", &c.OutputDir)
	str("STUDIOD_COMFY_DIR", &c.ComfyDir)
	str("STUDIOD_REPO_URL", &c.RepoURL)
	str("STUDIOD_RAW_BASE_URL", &c.RawBaseURL)
	str("STUDIOD_ADMIN_PASSWORD_HASH", &c.AdminPasswordHash)
	str("STUDIOD_TOKEN_SECRET", &c.TokenSecret)
	str("STUDIOD_LOG_LEVEL", &c.LogLevel)
	str("STUDIOD_LOG_FORMAT", &c.LogFormat)
	str("STUDIOD_LOG_FILE", &c.LogFile)
	num("STUDIOD_ART_PORT", &c.ArtPort)
	num("STUDIOD_NOTEBOOK_PORT", &c.NotebookPort)
	num("STUDIOD_FETCH_TIMEOUT_SEC", &c.FetchTimeoutSec)
	if v, ok := lookup("STUDIOD_CORS_ORIGINS"); ok && v != "" {
		c.CORSEnabled = true
		c.CORSOrigins = SplitCSV(v)
	}
	return c
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setStr(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}
