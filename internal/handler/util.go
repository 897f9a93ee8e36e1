package handler

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// rejection is the body of a validation failure: the diagnostic plus a
// user-facing reply the widget can display in the thread.
type rejection struct {
	Error     string `json:"error"`
	Reply     string `json:"reply,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// writeRejection writes a 400-class validation response.
func writeRejection(w http.ResponseWriter, status int, errMsg, reply, sessionID string) {
	writeJSON(w, status, rejection{
		Error:     errMsg,
		Reply:     reply,
		SessionID: sessionID,
	})
}
