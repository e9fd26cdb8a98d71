package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"studiod/internal/console"
	"studiod/internal/status"
	"studiod/pkg/types"
)

// writeExec writes an executable shell script and returns its path.
func writeExec(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// fakeCheckout writes scripts into the checkout dir instead of cloning.
type fakeCheckout struct {
	mu      sync.Mutex
	scripts map[string]string // rel path -> body
	dirs    []string
	gate    chan struct{}
	err     error
	panics  bool
}

func (f *fakeCheckout) Fetch(ctx context.Context, dir string) error {
	f.mu.Lock()
	f.dirs = append(f.dirs, dir)
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return f.err
	}
	for rel, body := range f.scripts {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		// written without exec bit; the step must chmod it
		if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCheckout) Dirs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dirs...)
}

// fakeSource serves script text from memory.
type fakeSource struct {
	texts map[string]string
	err   error
}

func (s fakeSource) Fetch(ctx context.Context, path string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.texts[path], nil
}

type harness struct {
	orch  *Orchestrator
	out   *console.Channel
	store *status.Store
	pub   *MemoryPublisher
	comfy string
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		out:   console.New(),
		store: status.NewStore(filepath.Join(root, "status")),
		pub:   NewMemoryPublisher(),
		comfy: filepath.Join(root, "ComfyUI"),
	}
	cfg.Output = h.out
	cfg.Store = h.store
	cfg.Publisher = h.pub
	if cfg.ComfyDir == "" {
		cfg.ComfyDir = h.comfy
	}
	h.orch = New(cfg)
	t.Cleanup(h.orch.Close)
	return h
}

// runAndWait begins req and waits for the run to finish.
func (h *harness) runAndWait(t *testing.T, req types.InstallRequest) (Result, []string) {
	t.Helper()
	run, err := h.orch.Begin(req)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	select {
	case <-run.Done():
	case <-time.After(20 * time.Second):
		t.Fatalf("run did not finish")
	}
	return run.Result(), h.out.DrainAll()
}

func contains(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

func containsPrefix(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
