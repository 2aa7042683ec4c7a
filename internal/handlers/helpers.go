package handlers

import (
	"encoding/json"
	"net/http"
)

// RequireMethod gates a gateway endpoint to one HTTP method (HEAD rides
// along with GET). Writes the 405 itself and returns false on mismatch.
// The webhook and test-tool handlers are the only POST surfaces; everything
// under /api/ is GET.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// WriteJSON writes a JSON response with the given status code. The webhook
// handler always passes 200 here; failures on that path ride inside the
// envelope, not the status line.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the operator-endpoint error shape ({"status","error"}).
// Not used on webhook paths, which have their own envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}
