package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/apperr"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into dst. An absent or empty body and
// an oversize body are validation errors.
func decodeBody(req *http.Request, dst any) error {
	if req.Body == nil {
		return apperr.Validation("No JSON data provided")
	}
	err := json.NewDecoder(req.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return apperr.Validation("No JSON data provided")
	case isBodyTooLarge(err):
		return apperr.Validation("Request body too large")
	default:
		return apperr.Validationf("Invalid JSON body: %v", err)
	}
}
