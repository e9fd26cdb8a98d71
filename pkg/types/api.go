package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ResultResponse is the success/message envelope used by panel actions.
type ResultResponse struct {
	// example: true
	Success bool `json:"success" example:"true"`
	// example: Session started for alice
	Message string `json:"message,omitempty" example:"Session started for alice"`
}

// AuthRequest is the POST /authenticate payload.
type AuthRequest struct {
	// example: admin
	Password string `json:"password" example:"admin"`
}

// StatusResponse is returned by GET /check_status.
type StatusResponse struct {
	ComfyUI ComponentStatus `json:"comfyui"`
	Models  ComponentStatus `json:"models"`
	Nodes   ComponentStatus `json:"nodes"`
}

// NodesResponse is returned by GET /get_available_nodes.
type NodesResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Nodes   []Item `json:"nodes"`
}

// ModelsResponse is returned by GET /get_available_models.
type ModelsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Models  []Item `json:"models"`
}

// InstallResponse is returned by POST /install.
type InstallResponse struct {
	Success bool `json:"success"`
	// Identifier of the accepted run.
	// example: 0b6f3c1e-5f7a-4c0e-9a53-2f7d1f0f4a11
	RunID   string `json:"run_id,omitempty" example:"0b6f3c1e-5f7a-4c0e-9a53-2f7d1f0f4a11"`
	Message string `json:"message,omitempty"`
}

// OutputResponse is returned by GET /terminal_output.
type OutputResponse struct {
	// Newline-joined output drained since the last poll.
	Output string `json:"output"`
	// Same output as individual lines.
	Lines []string `json:"lines"`
	// True when no installation is running.
	// example: true
	InstallationComplete bool `json:"installation_complete" example:"true"`
	Success              bool `json:"success"`
}

// StartSessionRequest is the POST /start_session payload.
type StartSessionRequest struct {
	// example: alice
	ArtistName string `json:"artist_name" example:"alice"`
}

// ReadinessResponse is returned by GET /comfyui_status.
type ReadinessResponse struct {
	// example: true
	Ready bool `json:"ready" example:"true"`
}

// ArtistsResponse is returned by GET /artists.
type ArtistsResponse struct {
	Artists []string `json:"artists"`
}

// InfoResponse is returned by GET /info.
type InfoResponse struct {
	// example: abc123xyz
	PodID   string      `json:"pod_id" example:"abc123xyz"`
	Artists []string    `json:"artists"`
	Session SessionInfo `json:"session"`
}
