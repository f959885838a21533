package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const DefaultRetryAfterSec = 1

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteUnavailable answers 503 with a Retry-After hint for transient storage
// or broker failures.
func WriteUnavailable(w http.ResponseWriter, retryAfterSec int) {
	if retryAfterSec <= 0 {
		retryAfterSec = DefaultRetryAfterSec
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	Write(w, http.StatusServiceUnavailable, APIError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: "service temporarily unavailable, retry later",
	})
}
