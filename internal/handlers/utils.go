package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const contextEmailKey contextKey = "email"

// MessageResponse is the minimal error/info payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse carries a success flag alongside a message.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

func writeStatus(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, StatusResponse{Success: success, Message: message})
}

// writeInternalError hides whatever actually failed behind the one blanket
// message clients are promised for unclassified failures.
func writeInternalError(w http.ResponseWriter) {
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

func emailFromContext(ctx context.Context) (string, error) {
	email, ok := ctx.Value(contextEmailKey).(string)
	if !ok || strings.TrimSpace(email) == "" {
		return "", errors.New("missing subject")
	}
	return email, nil
}
