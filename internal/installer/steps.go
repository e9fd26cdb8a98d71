package installer

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"studiod/internal/common/fsutil"
	"studiod/internal/console"
	"studiod/internal/scripts"
	"studiod/pkg/types"
)

// runScript checks out the installer repository into a throwaway directory
// and runs the component's script, streaming its output.
func (o *Orchestrator) runScript(ctx context.Context, c types.Component) bool {
	rel := o.cfg.Scripts[c]
	o.out.Pushf("Starting %s installation...", c)
	o.out.Push("Pulling installation scripts from GitHub...")

	dir, err := os.MkdirTemp("", "comfyui-install-"+uuid.NewString()+"-")
	if err != nil {
		o.out.Errorf("create working directory: %v", err)
		return false
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			o.log.Warn().Err(err).Str("dir", dir).Msg("installer event=cleanup_failed")
		}
	}()

	if err := o.cfg.Checkout.Fetch(ctx, dir); err != nil {
		o.out.Errorf("%v", err)
		return false
	}
	script, ok := fsutil.WithinDir(dir, rel)
	if !ok || rel == "" {
		o.out.Errorf("Installation script not found: %s", rel)
		return false
	}
	if fi, err := os.Stat(script); err != nil || fi.IsDir() {
		o.out.Errorf("Installation script not found: %s", rel)
		return false
	}
	if err := os.Chmod(script, 0o755); err != nil {
		o.out.Errorf("chmod %s: %v", rel, err)
		return false
	}

	sctx, cancel := context.WithTimeout(ctx, o.cfg.ScriptTimeout)
	defer cancel()
	stdout := console.NewLineWriter(o.out, "")
	stderr := console.NewLineWriter(o.out, console.ErrorPrefix)
	start := time.Now()
	err = RunCmd(sctx, Cmd{Path: script, Dir: dir, Stdout: stdout, Stderr: stderr})
	stdout.Flush()
	stderr.Flush()
	o.log.Info().Str("event", "script_exit").Str("script", rel).Dur("elapsed", time.Since(start)).AnErr("error", err).Msg("installer event=script_exit")
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			o.out.Errorf("%s timed out after %s", rel, o.cfg.ScriptTimeout)
		case errors.Is(err, context.Canceled):
			o.out.Errorf("%s cancelled", rel)
		case errors.As(err, &exitErr):
			o.out.Errorf("%s exited with code %d", rel, exitErr.ExitCode())
		default:
			o.out.Errorf("run %s: %v", rel, err)
		}
		return false
	}
	return true
}

// runFiltered installs only the requested items of a component, one at a
// time. A failed item does not stop the remaining ones but fails the step.
func (o *Orchestrator) runFiltered(ctx context.Context, run *Run, c types.Component, ids []string) bool {
	kind := "model"
	if c == types.ComponentPlugins {
		kind = "node"
	}
	if o.cfg.Source == nil {
		o.out.Pushf("Failed to fetch %s installation script from GitHub", kind)
		return false
	}
	text, err := o.cfg.Source.Fetch(ctx, o.cfg.Scripts[c])
	if err != nil {
		o.out.Pushf("Failed to fetch %s installation script from GitHub", kind)
		o.out.Errorf("%v", err)
		return false
	}
	var all []types.Item
	if c == types.ComponentPlugins {
		all = scripts.ParseNodes(text)
	} else {
		all = scripts.ParseModels(text)
	}
	selected, unknown := scripts.Filter(all, ids)
	for _, id := range unknown {
		o.log.Debug().Str("run_id", run.ID).Str("kind", kind).Str("id", id).Msg("installer event=unknown_item")
	}
	if len(selected) == 0 {
		o.out.Pushf("No valid %ss selected for installation", kind)
		return false
	}

	if c == types.ComponentPlugins {
		o.out.Pushf("Installing %d custom nodes...", len(selected))
	} else {
		o.out.Pushf("Installing %d models...", len(selected))
	}
	ok := true
	for _, it := range selected {
		var err error
		if c == types.ComponentPlugins {
			o.out.Pushf("Installing %s...", it.Name)
			err = o.installPlugin(ctx, it)
		} else {
			o.out.Pushf("Downloading %s (%s)...", it.Name, it.Get(types.ExtraSize))
			err = o.installModel(ctx, it)
		}
		o.reportItem(run, kind, it, err)
		if err != nil {
			ok = false
		}
	}
	o.out.Pushf("Individual %s installation completed", kind)
	return ok
}

func (o *Orchestrator) reportItem(run *Run, kind string, it types.Item, err error) {
	installItemsTotal.WithLabelValues(kind, resultLabel(err == nil)).Inc()
	o.cfg.Publisher.Publish(Event{Name: "item_done", RunID: run.ID, Component: kind, Fields: map[string]any{"id": it.ID, "success": err == nil}})
	timedOut := errors.Is(err, context.DeadlineExceeded)
	switch {
	case err == nil && kind == "node":
		o.out.Pushf("✓ %s installed successfully", it.Name)
	case err == nil:
		o.out.Pushf("✓ %s downloaded successfully", it.Name)
	case timedOut && kind == "node":
		o.out.Pushf("✗ Installation of %s timed out", it.Name)
	case timedOut:
		o.out.Pushf("✗ Download of %s timed out", it.Name)
	case kind == "node":
		o.out.Pushf("✗ Failed to install %s: %v", it.Name, err)
	default:
		o.out.Pushf("✗ Failed to download %s: %v", it.Name, err)
	}
	if err != nil {
		o.log.Warn().Err(err).Str("run_id", run.ID).Str("kind", kind).Str("id", it.ID).Msg("installer event=item_failed")
	}
}
