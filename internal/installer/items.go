package installer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"studiod/internal/common/fsutil"
	"studiod/pkg/types"
)

// stderrTail bounds how much child stderr is quoted in a failure line.
const stderrTail = 1024

// installPlugin clones the plugin repository into custom_nodes and installs
// its requirements.txt when one is present.
func (o *Orchestrator) installPlugin(ctx context.Context, it types.Item) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.PluginTimeout)
	defer cancel()

	folder := it.Get(types.ExtraFolder)
	if folder == "" {
		folder = it.ID
	}
	nodesDir := filepath.Join(o.cfg.ComfyDir, "custom_nodes")
	if err := fsutil.EnsureDir(nodesDir); err != nil {
		return err
	}
	dest, ok := fsutil.WithinDir(nodesDir, folder)
	if !ok || dest == nodesDir {
		return fmt.Errorf("invalid folder name %q", folder)
	}
	if err := o.runQuiet(ctx, Cmd{Path: o.cfg.GitBin, Args: []string{"clone", it.Source, dest}, Dir: nodesDir}); err != nil {
		return err
	}
	if fsutil.PathExists(filepath.Join(dest, "requirements.txt")) {
		return o.runQuiet(ctx, Cmd{Path: o.cfg.Pip, Args: []string{"install", "-r", "requirements.txt"}, Dir: dest})
	}
	return nil
}

// installModel downloads a weight file to its scripted path under ComfyDir.
// A path that would leave ComfyDir is reduced to its base name.
func (o *Orchestrator) installModel(ctx context.Context, it types.Item) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ModelTimeout)
	defer cancel()

	rel := it.Get(types.ExtraPath)
	if rel == "" {
		rel = it.Get(types.ExtraFilename)
	}
	dest, ok := fsutil.WithinDir(o.cfg.ComfyDir, rel)
	if !ok || dest == filepath.Clean(o.cfg.ComfyDir) {
		dest = filepath.Join(o.cfg.ComfyDir, filepath.Base(rel))
	}
	return o.cfg.Downloader.Download(ctx, it.Source, dest)
}

// runQuiet runs c discarding stdout and returns stderr's tail on failure.
func (o *Orchestrator) runQuiet(ctx context.Context, c Cmd) error {
	var stderr bytes.Buffer
	c.Stderr = &stderr
	err := RunCmd(ctx, c)
	if err == nil || ctx.Err() != nil {
		return err
	}
	tail := strings.TrimSpace(stderr.String())
	if len(tail) > stderrTail {
		tail = tail[len(tail)-stderrTail:]
	}
	if tail == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, tail)
}
