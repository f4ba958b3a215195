package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API error envelope. Middleware cannot use the
// handler helpers without an import cycle.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
