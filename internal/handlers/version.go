package handlers

import (
	"net/http"

	"media-processor/internal/startup"
)

// GetVersion returns build information for the running binary.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, startup.GetBuildInfo())
}
