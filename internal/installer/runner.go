package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"studiod/internal/common/procutil"
)

// Cmd describes one child process invocation.
type Cmd struct {
	Path   string
	Args   []string
	Env    map[string]string // additional env vars
	Dir    string            // working directory
	Stdout io.Writer
	Stderr io.Writer
}

// waitDelay bounds how long Wait lingers on pipes held open by grandchildren
// after the child itself exits or is killed.
const waitDelay = 5 * time.Second

// RunCmd runs c to completion. The child runs in its own process group and the
// group is killed when ctx ends.
func RunCmd(ctx context.Context, c Cmd) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	// inherit environment
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	procutil.Detach(cmd)
	cmd.WaitDelay = waitDelay
	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
