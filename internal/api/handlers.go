package api

import (
	"net/http"
)

// handleStatus returns the last reported value of every status key.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"statuses": s.hub.Statuses(),
	})
}

// handleStats returns the latest counters snapshot.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats, ok := s.hub.Stats()
	if !ok {
		writeNotFound(w, "no stats recorded yet")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleDevices returns the connected serial device paths.
func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	paths := s.registry.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": paths,
		"count":   len(paths),
	})
}
