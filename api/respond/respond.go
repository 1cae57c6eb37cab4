package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes a payload with the given status.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Error writes the standard failure envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
