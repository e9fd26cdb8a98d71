package installer

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"studiod/internal/common/fsutil"
	"studiod/pkg/types"
)

func modelServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.safetensors":
			_, _ = w.Write([]byte("weights-a"))
		case "/slow.safetensors":
			select {
			case <-r.Context().Done():
			case <-time.After(10 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFiltered_ModelsDownloadSelected(t *testing.T) {
	srv := modelServer(t)
	script := "# 1.5GB\n" +
		`wget -O "models/checkpoints/a.safetensors" "` + srv.URL + `/a.safetensors"` + "\n" +
		`wget -O "models/loras/b.safetensors" "` + srv.URL + `/b.safetensors"` + "\n" +
		`wget -O "models/loras/c.safetensors" "` + srv.URL + `/a.safetensors"` + "\n"
	src := fakeSource{texts: map[string]string{"installer/install_models.sh": script}}
	h := newHarness(t, Config{Checkout: &fakeCheckout{}, Source: src})

	res, lines := h.runAndWait(t, types.InstallRequest{Models: true, IndividualModels: []string{"a_safetensors", "nope"}})
	if !res.Success {
		t.Fatalf("expected success: %v", lines)
	}
	for _, want := range []string{"Installing 1 models...", "Downloading a (1.5GB)...", "✓ a downloaded successfully", "Individual model installation completed", "Installation completed successfully!"} {
		if !contains(lines, want) {
			t.Fatalf("missing %q in %v", want, lines)
		}
	}
	b, err := os.ReadFile(filepath.Join(h.comfy, "models", "checkpoints", "a.safetensors"))
	if err != nil || string(b) != "weights-a" {
		t.Fatalf("downloaded file: %q %v", b, err)
	}
	if fsutil.PathExists(filepath.Join(h.comfy, "models", "checkpoints", "a.safetensors.part")) {
		t.Fatalf("partial file left behind")
	}
	if fsutil.PathExists(filepath.Join(h.comfy, "models", "loras", "c.safetensors")) {
		t.Fatalf("unselected model downloaded")
	}
}

func TestFiltered_ModelFailureContinuesThenFails(t *testing.T) {
	srv := modelServer(t)
	script := `wget -O "models/b.safetensors" "` + srv.URL + `/b.safetensors"` + "\n" +
		`wget -O "models/a.safetensors" "` + srv.URL + `/a.safetensors"` + "\n"
	src := fakeSource{texts: map[string]string{"installer/install_models.sh": script}}
	h := newHarness(t, Config{Checkout: &fakeCheckout{}, Source: src})

	res, lines := h.runAndWait(t, types.InstallRequest{Models: true, IndividualModels: []string{"a_safetensors", "b_safetensors"}})
	if res.Success || res.Failed != types.ComponentModels {
		t.Fatalf("unexpected result %+v", res)
	}
	if !containsPrefix(lines, "✗ Failed to download b: ") {
		t.Fatalf("missing failure line: %v", lines)
	}
	if !contains(lines, "✓ a downloaded successfully") {
		t.Fatalf("second item must still run: %v", lines)
	}
	if !contains(lines, "Models installation failed") {
		t.Fatalf("missing summary: %v", lines)
	}
	if fsutil.PathExists(filepath.Join(h.comfy, "models", "b.safetensors")) {
		t.Fatalf("failed download must not leave a file")
	}
	if st := h.store.Read(types.ComponentModels); st.Installed || st.Installing {
		t.Fatalf("status %+v", st)
	}
}

func TestFiltered_ModelTimeout(t *testing.T) {
	srv := modelServer(t)
	script := `wget -O "slow.safetensors" "` + srv.URL + `/slow.safetensors"` + "\n"
	src := fakeSource{texts: map[string]string{"installer/install_models.sh": script}}
	h := newHarness(t, Config{Checkout: &fakeCheckout{}, Source: src, ModelTimeout: 200 * time.Millisecond})

	res, lines := h.runAndWait(t, types.InstallRequest{Models: true, IndividualModels: []string{"slow_safetensors"}})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !contains(lines, "✗ Download of slow timed out") {
		t.Fatalf("missing timeout line: %v", lines)
	}
}

func TestFiltered_ModelPathEscapeConfined(t *testing.T) {
	srv := modelServer(t)
	script := `wget -O "../../etc/a.safetensors" "` + srv.URL + `/a.safetensors"` + "\n"
	src := fakeSource{texts: map[string]string{"installer/install_models.sh": script}}
	h := newHarness(t, Config{Checkout: &fakeCheckout{}, Source: src})

	res, lines := h.runAndWait(t, types.InstallRequest{Models: true, IndividualModels: []string{"a_safetensors"}})
	if !res.Success {
		t.Fatalf("expected success: %v", lines)
	}
	if !fsutil.PathExists(filepath.Join(h.comfy, "a.safetensors")) {
		t.Fatalf("escaping path must be written under comfy dir")
	}
}

func TestFiltered_NodesCloneAndRequirements(t *testing.T) {
	bin := t.TempDir()
	git := writeExec(t, bin, "git", `mkdir -p "$3" && echo "requests" > "$3/requirements.txt" && echo "$2" > "$3/origin"`)
	pip := writeExec(t, bin, "pip", `[ "$1" = install ] && [ -f "$3" ] && touch deps-installed`)
	script := "# Adds cool features\ngit clone https://github.com/org/Cool-Node.git cool_node\n" +
		"git clone https://github.com/org/Other.git\n"
	src := fakeSource{texts: map[string]string{"installer/install_nodes.sh": script}}
	h := newHarness(t, Config{Checkout: &fakeCheckout{}, Source: src, GitBin: git, Pip: pip})

	res, lines := h.runAndWait(t, types.InstallRequest{Nodes: true, IndividualNodes: []string{"cool_node"}})
	if !res.Success {
		t.Fatalf("expected success: %v", lines)
	}
	for _, want := range []string{"Installing 1 custom nodes...", "Installing Adds cool features...", "✓ Adds cool features installed successfully", "Individual node installation completed"} {
		if !contains(lines, want) {
			t.Fatalf("missing %q in %v", want, lines)
		}
	}
	dest := filepath.Join(h.comfy, "custom_nodes", "cool_node")
	if !fsutil.PathExists(filepath.Join(dest, "deps-installed")) {
		t.Fatalf("requirements were not installed")
	}
	if fsutil.PathExists(filepath.Join(h.comfy, "custom_nodes", "Other")) {
		t.Fatalf("unselected node cloned")
	}
	if st := h.store.Read(types.ComponentPlugins); !st.Installed || st.Installing {
		t.Fatalf("status %+v", st)
	}
}

func TestFiltered_NodeCloneFailureQuotesStderr(t *testing.T) {
	bin := t.TempDir()
	git := writeExec(t, bin, "git", `echo "fatal: repository not found" 1>&2; exit 128`)
	src := fakeSource{texts: map[string]string{"installer/install_nodes.sh": "git clone https://github.com/org/Gone.git\n"}}
	h := newHarness(t, Config{Checkout: &fakeCheckout{}, Source: src, GitBin: git})

	res, lines := h.runAndWait(t, types.InstallRequest{Nodes: true, IndividualNodes: []string{"gone"}})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !contains(lines, "✗ Failed to install Gone: exit status 128: fatal: repository not found") {
		t.Fatalf("missing failure line: %v", lines)
	}
}

func TestFiltered_NoValidSelection(t *testing.T) {
	src := fakeSource{texts: map[string]string{"installer/install_nodes.sh": "git clone https://github.com/org/A.git\n"}}
	h := newHarness(t, Config{Checkout: &fakeCheckout{}, Source: src})
	res, lines := h.runAndWait(t, types.InstallRequest{Nodes: true, IndividualNodes: []string{"missing"}})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !contains(lines, "No valid nodes selected for installation") || !contains(lines, "Nodes installation failed") {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestFiltered_FetchFailure(t *testing.T) {
	src := fakeSource{err: errors.New("fetch installer/install_models.sh: timed out")}
	h := newHarness(t, Config{Checkout: &fakeCheckout{}, Source: src})
	res, lines := h.runAndWait(t, types.InstallRequest{Models: true, IndividualModels: []string{"x"}})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !contains(lines, "Failed to fetch model installation script from GitHub") {
		t.Fatalf("missing fetch failure: %v", lines)
	}
	if h.orch.InProgress() {
		t.Fatalf("gate not released")
	}
}

func TestFiltered_ComfyIgnoresItemLists(t *testing.T) {
	co := &fakeCheckout{scripts: map[string]string{"installer/install_comfyui.sh": "echo whole"}}
	h := newHarness(t, Config{Checkout: co, Source: fakeSource{}})
	res, lines := h.runAndWait(t, types.InstallRequest{ComfyUI: true, IndividualNodes: []string{"x"}})
	if !res.Success || !contains(lines, "whole") {
		t.Fatalf("unexpected result %+v %v", res, lines)
	}
}
