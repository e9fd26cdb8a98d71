package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studiod/internal/auth"
	"studiod/internal/installer"
	"studiod/pkg/types"
)

// StatusReader exposes durable component status.
type StatusReader interface {
	All() types.StatusResponse
}

// ItemCatalog lists installable plugins and models.
type ItemCatalog interface {
	Nodes(ctx context.Context, refresh bool) ([]types.Item, error)
	Models(ctx context.Context, refresh bool) ([]types.Item, error)
}

// Installer starts background installation runs.
type Installer interface {
	Begin(req types.InstallRequest) (*installer.Run, error)
	InProgress() bool
}

// OutputSource is drained by the terminal output poll.
type OutputSource interface {
	DrainAll() []string
}

// Sessions controls the artist session.
type Sessions interface {
	Start(artist string) error
	Readiness(ctx context.Context) bool
	Info() types.SessionInfo
	Terminate()
}

// Inventory reports what is already on disk.
type Inventory interface {
	Artists() ([]string, error)
	MarkModels(items []types.Item) error
	MarkPlugins(items []types.Item) error
}

// Deps wires the request surface to its services. Inventory and EnsureDirs
// may be nil.
type Deps struct {
	PodID      string
	Status     StatusReader
	Catalog    ItemCatalog
	Installer  Installer
	Output     OutputSource
	Sessions   Sessions
	Inventory  Inventory
	Verifier   auth.Verifier
	Tokens     *auth.Tokens
	EnsureDirs func() error
}

type server struct {
	Deps
}

// NewMux builds the HTTP handler for the control panel.
func NewMux(d Deps) http.Handler {
	s := &server{Deps: d}
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger)
	if corsEnabled {
		r.Use(corsMiddleware())
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	r.Get("/info", s.handleInfo)
	r.Get("/artists", s.handleArtists)
	r.Post("/authenticate", s.handleAuthenticate)
	r.Get("/check_status", s.handleCheckStatus)
	r.Get("/terminal_output", s.handleTerminalOutput)
	r.Post("/start_session", s.handleStartSession)
	r.Get("/comfyui_status", s.handleReadiness)
	r.Get("/session", s.handleSession)
	r.Post("/terminate", s.handleTerminate)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/get_available_nodes", s.handleNodes)
		r.Get("/get_available_models", s.handleModels)
		r.Post("/install", s.handleInstall)
	})
	return r
}

// decodeJSON reads a bounded JSON body into v. It writes the error response
// itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *server) artists() []string {
	if s.Inventory == nil {
		return []string{}
	}
	list, err := s.Inventory.Artists()
	if err != nil {
		logWarn(err, "list artists")
	}
	if list == nil {
		list = []string{}
	}
	return list
}

func (s *server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.InfoResponse{
		PodID:   s.PodID,
		Artists: s.artists(),
		Session: s.Sessions.Info(),
	})
}

func (s *server) handleArtists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ArtistsResponse{Artists: s.artists()})
}

func (s *server) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	if s.EnsureDirs != nil {
		if err := s.EnsureDirs(); err != nil {
			logWarn(err, "ensure directories")
		}
	}
	writeJSON(w, http.StatusOK, s.Status.All())
}
