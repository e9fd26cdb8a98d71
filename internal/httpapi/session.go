package httpapi

import (
	"net/http"
	"strings"

	"studiod/pkg/types"
)

func (s *server) handleTerminalOutput(w http.ResponseWriter, r *http.Request) {
	lines := s.Output.DrainAll()
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, types.OutputResponse{
		Output:               strings.Join(lines, "\n"),
		Lines:                lines,
		InstallationComplete: !s.Installer.InProgress(),
		Success:              true,
	})
}

func (s *server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req types.StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Sessions.Start(req.ArtistName); err != nil {
		if reason := rejectionReason(err); reason != "" {
			IncrementRejection(reason)
		} else {
			logWarn(err, "start session")
		}
		writeResult(w, statusForError(err), false, err.Error())
		return
	}
	writeResult(w, http.StatusOK, true, "Session started for "+strings.TrimSpace(req.ArtistName))
}

func (s *server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	writeJSON(w, http.StatusOK, types.ReadinessResponse{Ready: s.Sessions.Readiness(ctx)})
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.Info())
}

func (s *server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Terminate()
	writeResult(w, http.StatusOK, true, "Processes terminated successfully")
}
