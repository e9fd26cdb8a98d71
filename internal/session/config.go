package session

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultReadyDelay    = 5 * time.Second
	defaultReadyInterval = time.Second
	defaultReadyAttempts = 30
	defaultProbeTimeout  = 2 * time.Second
)

// Command describes how to launch one child process.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  map[string]string
}

// Config encapsulates all tunables for Supervisor construction.
type Config struct {
	// OutputDir holds one folder per artist.
	OutputDir string
	// Notebook launches the notebook server.
	Notebook Command
	// ArtServer returns the art server command for an artist output folder.
	ArtServer func(artistDir string) Command
	// ProbeURL is the art server health endpoint.
	ProbeURL string

	ReadyDelay    time.Duration
	ReadyInterval time.Duration
	ReadyAttempts int
	ProbeTimeout  time.Duration

	Logger *zerolog.Logger
}

// NotebookCommand returns the notebook server launch command, bound to all
// interfaces without token or password and rooted at workspace.
func NotebookCommand(bin string, port int, workspace string) Command {
	return Command{
		Path: bin,
		Args: []string{
			"lab",
			"--ip=0.0.0.0",
			fmt.Sprintf("--port=%d", port),
			"--no-browser",
			"--allow-root",
			"--NotebookApp.token=",
			"--NotebookApp.password=",
		},
		Dir: workspace,
	}
}

// ArtServerCommand returns a factory for the art server launch command. The
// server writes generated images to the artist folder and caches
// downloaded models under workspace.
func ArtServerCommand(python, comfyDir string, port int, workspace string) func(string) Command {
	return func(artistDir string) Command {
		return Command{
			Path: python,
			Args: []string{
				filepath.Join(comfyDir, "main.py"),
				"--listen", "0.0.0.0",
				"--port", fmt.Sprint(port),
				"--output-directory", artistDir,
			},
			Dir: comfyDir,
			Env: map[string]string{
				"HF_HOME":                   workspace,
				"HF_HUB_ENABLE_HF_TRANSFER": "1",
			},
		}
	}
}
