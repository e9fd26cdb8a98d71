package httpapi

import (
	"net/http"

	"studiod/internal/auth"
	"studiod/internal/scripts"
	"studiod/pkg/types"
)

// requireAdmin rejects requests without a valid admin token.
func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Tokens == nil || s.Tokens.Validate(auth.FromRequest(r)) != nil {
			IncrementRejection("unauthenticated")
			writeResult(w, http.StatusUnauthorized, false, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req types.AuthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Verifier.Verify(req.Password); err != nil {
		IncrementRejection("bad_password")
		writeResult(w, http.StatusOK, false, "Invalid password")
		return
	}
	if s.Tokens == nil {
		writeJSONError(w, http.StatusInternalServerError, "token issuer not configured")
		return
	}
	tok, err := s.Tokens.Issue()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	http.SetCookie(w, s.Tokens.Cookie(tok))
	writeResult(w, http.StatusOK, true, "")
}

func refreshRequested(r *http.Request) bool {
	switch r.URL.Query().Get("refresh") {
	case "1", "true", "yes":
		return true
	}
	return false
}

// itemsError renders a catalog failure as the panel's inline message.
func itemsError(err error) string {
	switch {
	case scripts.IsNotFound(err):
		return "Failed to fetch install script"
	case scripts.IsTimeout(err):
		return "Timed out fetching install script"
	}
	return err.Error()
}

func (s *server) handleNodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	items, err := s.Catalog.Nodes(ctx, refreshRequested(r))
	if err != nil {
		logWarn(err, "list nodes")
		writeJSON(w, http.StatusOK, types.NodesResponse{Success: false, Message: itemsError(err), Nodes: []types.Item{}})
		return
	}
	if s.Inventory != nil {
		if err := s.Inventory.MarkPlugins(items); err != nil {
			logWarn(err, "mark installed nodes")
		}
	}
	if items == nil {
		items = []types.Item{}
	}
	writeJSON(w, http.StatusOK, types.NodesResponse{Success: true, Nodes: items})
}

func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	items, err := s.Catalog.Models(ctx, refreshRequested(r))
	if err != nil {
		logWarn(err, "list models")
		writeJSON(w, http.StatusOK, types.ModelsResponse{Success: false, Message: itemsError(err), Models: []types.Item{}})
		return
	}
	if s.Inventory != nil {
		if err := s.Inventory.MarkModels(items); err != nil {
			logWarn(err, "mark installed models")
		}
	}
	if items == nil {
		items = []types.Item{}
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{Success: true, Models: items})
}

func (s *server) handleInstall(w http.ResponseWriter, r *http.Request) {
	var req types.InstallRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	run, err := s.Installer.Begin(req)
	if err != nil {
		status := statusForError(err)
		IncrementRejection(rejectionReason(err))
		writeJSON(w, status, types.InstallResponse{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, types.InstallResponse{Success: true, RunID: run.ID})
}
