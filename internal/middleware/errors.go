// Package middleware provides HTTP middleware for the summarization API.
package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody is the {"detail": "..."} error shape shared with the handlers.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Detail: detail})
}
