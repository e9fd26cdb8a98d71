package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"studiod/internal/auth"
	"studiod/internal/console"
	"studiod/internal/httpapi"
	"studiod/internal/installer"
	"studiod/internal/registry"
	"studiod/internal/scripts"
	"studiod/internal/session"
	"studiod/internal/status"
	"studiod/pkg/types"
)

const adminPassword = "letmein"

// scriptCheckout stands in for the installer repository clone.
type scriptCheckout struct {
	mu      sync.Mutex
	scripts map[string]string
	gate    chan struct{}
}

func (c *scriptCheckout) Fetch(ctx context.Context, dir string) error {
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for rel, body := range c.scripts {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type env struct {
	t        *testing.T
	srv      *httptest.Server
	client   *http.Client
	ws       string
	comfyDir string
	outDir   string
	checkout *scriptCheckout
	orch     *installer.Orchestrator
	sup      *session.Supervisor
}

// newEnv wires the real services behind an httptest server. The remote
// script host is a second httptest server that also serves model weights.
func newEnv(t *testing.T) *env {
	t.Helper()
	ws := t.TempDir()
	e := &env{
		t:        t,
		ws:       ws,
		comfyDir: filepath.Join(ws, "ComfyUI"),
		outDir:   filepath.Join(ws, "output"),
		checkout: &scriptCheckout{scripts: map[string]string{
			"installer/install_comfyui.sh": `echo "cloning app"; echo "app ready"`,
		}},
	}

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		switch r.URL.Path {
		case "/installer/install_models.sh":
			fmt.Fprintf(w, "#!/bin/bash\n# 1KB\nwget -O \"models/vae/ae.safetensors\" \"%s/weights/ae\"\n# 2GB\nwget -O \"models/unet/flux.safetensors\" \"%s/weights/flux\"\n", base, base)
		case "/installer/install_nodes.sh":
			fmt.Fprint(w, "#!/bin/bash\n# Example nodes\ngit clone https://example.invalid/org/Example-Nodes.git\n")
		case "/weights/ae":
			_, _ = w.Write([]byte("vae-bytes"))
		case "/weights/flux":
			_, _ = w.Write([]byte("flux-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(remote.Close)

	store := status.NewStore(filepath.Join(ws, ".comfyui-status"))
	out := console.New()
	fetcher := scripts.NewFetcher(remote.URL, 2*time.Second)
	e.orch = installer.New(installer.Config{
		Store:         store,
		Output:        out,
		Source:        fetcher,
		Checkout:      e.checkout,
		ComfyDir:      e.comfyDir,
		Scripts:       installer.DefaultScripts(),
		ScriptTimeout: 10 * time.Second,
		ModelTimeout:  5 * time.Second,
	})
	t.Cleanup(e.orch.Close)

	bin := filepath.Join(ws, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	sleeper := filepath.Join(bin, "sleeper")
	if err := os.WriteFile(sleeper, []byte("#!/bin/sh\nexec sleep 60\n"), 0o755); err != nil {
		t.Fatalf("write sleeper: %v", err)
	}
	e.sup = session.New(session.Config{
		OutputDir: e.outDir,
		Notebook:  session.Command{Path: sleeper},
		ArtServer: func(string) session.Command { return session.Command{Path: sleeper} },
		// nothing listens here; readiness stays false
		ProbeURL:      "http://127.0.0.1:1/api/prompt",
		ReadyDelay:    -1,
		ReadyInterval: 10 * time.Millisecond,
		ReadyAttempts: 2,
		ProbeTimeout:  100 * time.Millisecond,
	})
	t.Cleanup(e.sup.Close)

	inv, err := registry.New(e.comfyDir, e.outDir)
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	tokens, err := auth.NewTokens("e2e-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	e.srv = httptest.NewServer(httpapi.NewMux(httpapi.Deps{
		PodID:      "e2e-pod",
		Status:     store,
		Catalog:    scripts.NewCatalog(fetcher, "installer/install_nodes.sh", "installer/install_models.sh"),
		Installer:  e.orch,
		Output:     out,
		Sessions:   e.sup,
		Inventory:  inv,
		Verifier:   auth.NewVerifier(hash),
		Tokens:     tokens,
		EnsureDirs: func() error { return os.MkdirAll(e.outDir, 0o755) },
	}))
	t.Cleanup(e.srv.Close)

	jar, _ := cookiejar.New(nil)
	e.client = &http.Client{Jar: jar, Timeout: 10 * time.Second}
	return e
}

func (e *env) do(method, path string, body any) (*http.Response, []byte) {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func (e *env) login() {
	e.t.Helper()
	_, b := e.do(http.MethodPost, "/authenticate", types.AuthRequest{Password: adminPassword})
	var r types.ResultResponse
	mustDecode(e.t, b, &r)
	if !r.Success {
		e.t.Fatalf("login failed: %s", b)
	}
}

// pollOutput drains terminal output until the run completes.
func (e *env) pollOutput() []string {
	e.t.Helper()
	var lines []string
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		_, b := e.do(http.MethodGet, "/terminal_output", nil)
		var r types.OutputResponse
		mustDecode(e.t, b, &r)
		lines = append(lines, r.Lines...)
		if r.InstallationComplete {
			// one more drain picks up lines pushed just before completion
			_, b = e.do(http.MethodGet, "/terminal_output", nil)
			mustDecode(e.t, b, &r)
			return append(lines, r.Lines...)
		}
		time.Sleep(20 * time.Millisecond)
	}
	e.t.Fatalf("installation did not complete; output so far:\n%s", strings.Join(lines, "\n"))
	return nil
}

func mustDecode(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %q: %v", b, err)
	}
}

func hasLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}
