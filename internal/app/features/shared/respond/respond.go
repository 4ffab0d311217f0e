// internal/app/features/shared/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSON writes v as the JSON response body with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON structure for all error responses.
type errorBody struct {
	Error string `json:"error"`
}

// Error writes a JSON error response with the given status code.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// maxBodyBytes caps JSON request bodies. API payloads here are small
// (a vote, a team name, a settings update), so 64 KiB is generous.
const maxBodyBytes = 64 << 10

// Decode reads the request body as JSON into dst. Unknown fields are
// rejected so client typos surface as 400s instead of silent no-ops.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}
