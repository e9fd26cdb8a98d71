// Package registry scans the workspace for what is already on disk: artist
// output folders, downloaded model weights and installed plugin folders.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"studiod/internal/common/fsutil"
	"studiod/internal/scripts"
	"studiod/pkg/types"
)

// Inventory reads the on-disk state under a ComfyUI root and an output root.
type Inventory struct {
	comfyDir  string
	outputDir string
}

// New returns an Inventory. Leading '~' in either path is expanded.
func New(comfyDir, outputDir string) (*Inventory, error) {
	c, err := fsutil.ExpandHome(comfyDir)
	if err != nil {
		return nil, err
	}
	o, err := fsutil.ExpandHome(outputDir)
	if err != nil {
		return nil, err
	}
	return &Inventory{comfyDir: c, outputDir: o}, nil
}

// Artists lists artist folders under the output root, sorted. Hidden folders
// and notebook checkpoint folders are skipped. A missing root yields nil.
func (inv *Inventory) Artists() ([]string, error) {
	entries, err := os.ReadDir(inv.outputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || name == ".ipynb_checkpoints" {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// ModelFiles returns the paths, relative to the ComfyUI root, of every
// weight file under its models folder.
func (inv *Inventory) ModelFiles() (map[string]bool, error) {
	out := make(map[string]bool)
	root := filepath.Join(inv.comfyDir, "models")
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !isWeight(d.Name()) {
			return nil
		}
		if rel, err := filepath.Rel(inv.comfyDir, p); err == nil {
			out[filepath.ToSlash(rel)] = true
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("walk models: %w", err)
	}
	return out, nil
}

// PluginFolders returns the folder names under custom_nodes.
func (inv *Inventory) PluginFolders() (map[string]bool, error) {
	out := make(map[string]bool)
	entries, err := os.ReadDir(filepath.Join(inv.comfyDir, "custom_nodes"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out[e.Name()] = true
		}
	}
	return out, nil
}

// MarkModels sets Installed on models whose scripted path, or whose file name
// anywhere under models, is already present.
func (inv *Inventory) MarkModels(items []types.Item) error {
	files, err := inv.ModelFiles()
	if err != nil {
		return err
	}
	byName := make(map[string]bool, len(files))
	for rel := range files {
		byName[filepath.Base(rel)] = true
	}
	for i := range items {
		p := filepath.ToSlash(filepath.Clean(items[i].Get(types.ExtraPath)))
		items[i].Installed = files[p] || byName[items[i].Get(types.ExtraFilename)]
	}
	return nil
}

// MarkPlugins sets Installed on plugins whose folder exists.
func (inv *Inventory) MarkPlugins(items []types.Item) error {
	folders, err := inv.PluginFolders()
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Installed = folders[items[i].Get(types.ExtraFolder)]
	}
	return nil
}

func isWeight(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range scripts.WeightExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
