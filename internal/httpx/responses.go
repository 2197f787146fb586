package httpx

import (
	"encoding/json"
	"net/http"
)

// DetailResponse is the body of every non-validation error and of plain
// confirmations, e.g. {"detail": "Book not found"}.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// ValidationResponse is the 422 body listing every failing field.
type ValidationResponse struct {
	Detail []ErrorDetail `json:"detail"`
}

// ErrorDetail locates a single validation failure. Loc starts with the
// request part ("body", "path" or "query") followed by the field name.
type ErrorDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONDetail writes {"detail": message}.
func JSONDetail(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, DetailResponse{Detail: message})
}

// JSONValidationError writes a 422 with the collected details.
func JSONValidationError(w http.ResponseWriter, details []ErrorDetail) {
	JSON(w, http.StatusUnprocessableEntity, ValidationResponse{Detail: details})
}

// JSONInternalError writes the generic 500 body. The cause is never exposed.
func JSONInternalError(w http.ResponseWriter) {
	JSONDetail(w, http.StatusInternalServerError, "Internal Server Error")
}
