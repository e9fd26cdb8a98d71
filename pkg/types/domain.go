package types

import "time"

// Component identifies one of the installable units.
type Component string

const (
	ComponentComfyApp Component = "comfyui"
	ComponentModels   Component = "models"
	ComponentPlugins  Component = "nodes"
)

// Components lists every component in install order.
var Components = []Component{ComponentComfyApp, ComponentModels, ComponentPlugins}

// Valid reports whether c is a known component.
func (c Component) Valid() bool {
	switch c {
	case ComponentComfyApp, ComponentModels, ComponentPlugins:
		return true
	}
	return false
}

// Title is the human-readable component name used in output lines.
func (c Component) Title() string {
	switch c {
	case ComponentComfyApp:
		return "ComfyUI"
	case ComponentModels:
		return "Models"
	case ComponentPlugins:
		return "Nodes"
	}
	return string(c)
}

// ComponentStatus is the durable installation state of a component.
type ComponentStatus struct {
	// Whether the last install attempt succeeded.
	// example: true
	Installed bool `json:"installed" example:"true"`
	// Whether an install is currently running for this component.
	// example: false
	Installing bool `json:"installing" example:"false"`
	// Time of the last write, nil if never written.
	Timestamp *time.Time `json:"timestamp"`
}

// Extra keys carried on Item.
const (
	ExtraSize     = "size"
	ExtraFolder   = "folder_name"
	ExtraFilename = "filename"
	ExtraPath     = "path"
)

// Item is an individually installable plugin or model discovered in a script.
type Item struct {
	// Stable slug derived from the item's folder or filename.
	// example: comfyui_manager
	ID string `json:"id" example:"comfyui_manager"`
	// Display name.
	// example: ComfyUI Manager
	Name string `json:"name" example:"ComfyUI Manager"`
	// Repository URL (plugins) or download URL (models).
	// example: https://github.com/ltdrdata/ComfyUI-Manager.git
	Source string `json:"source" example:"https://github.com/ltdrdata/ComfyUI-Manager.git"`
	// Kind-specific attributes: size for models, folder_name for plugins.
	Extra map[string]string `json:"extra,omitempty"`
	// Whether the item is already present on disk.
	// example: false
	Installed bool `json:"installed" example:"false"`
}

// Get returns an Extra value or "".
func (it Item) Get(key string) string {
	if it.Extra == nil {
		return ""
	}
	return it.Extra[key]
}

// InstallRequest selects the components and sub-items for one install run.
type InstallRequest struct {
	// Install the ComfyUI application.
	// example: true
	ComfyUI bool `json:"comfyui" example:"true"`
	// Install model weights.
	// example: false
	Models bool `json:"models" example:"false"`
	// Install plugin nodes.
	// example: false
	Nodes bool `json:"nodes" example:"false"`
	// Optional model ids; when non-empty only these models are installed.
	IndividualModels []string `json:"individual_models,omitempty"`
	// Optional plugin ids; when non-empty only these plugins are installed.
	IndividualNodes []string `json:"individual_nodes,omitempty"`
}

// Empty reports whether no component is selected.
func (r InstallRequest) Empty() bool { return !r.ComfyUI && !r.Models && !r.Nodes }

// Selected returns the selected components in install order.
func (r InstallRequest) Selected() []Component {
	var out []Component
	if r.ComfyUI {
		out = append(out, ComponentComfyApp)
	}
	if r.Models {
		out = append(out, ComponentModels)
	}
	if r.Nodes {
		out = append(out, ComponentPlugins)
	}
	return out
}

// SessionInfo is a read-only view of the active artist session.
type SessionInfo struct {
	// Artist the session belongs to; empty when no session is active.
	// example: alice
	Artist string `json:"artist" example:"alice"`
	// Session start time.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// Whether the notebook server process is alive.
	NotebookRunning bool `json:"notebook_running"`
	// Whether the art server process is alive.
	ArtServerRunning bool `json:"art_server_running"`
	// Whether the art server answered its health endpoint.
	ArtServerReady bool `json:"art_server_ready"`
	// Process ID of the notebook server.
	NotebookPID int `json:"notebook_pid,omitempty"`
	// Process ID of the art server.
	ArtServerPID int `json:"art_server_pid,omitempty"`
}
