package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the uniform error body. Details carries the field ->
// violation map on validation failures and is omitted otherwise.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// StatusResponse acknowledges a destructive operation.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// JSONStatus writes the success acknowledgement used by delete endpoints.
func JSONStatus(w http.ResponseWriter, status int, format string, args ...any) {
	JSON(w, status, StatusResponse{Status: "success", Message: fmt.Sprintf(format, args...)})
}
