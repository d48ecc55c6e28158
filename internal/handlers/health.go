package handlers

import (
	"net/http"
	"time"
)

// ServerStatusResponse is the liveness probe payload.
type ServerStatusResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerStatus reports that the server is up.
func ServerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ServerStatusResponse{
		Message:   "Server is running smoothly",
		Timestamp: time.Now(),
	})
}
