package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/viewtube/viewtube-backend/pkg/apierror"
)

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func respond(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	})
}

func respondError(w http.ResponseWriter, err error) {
	status := apierror.Status(err)
	message := err.Error()
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		// Don't leak internals on unexpected failures
		log.Printf("internal error: %v", err)
		message = "Internal server error"
	}
	respond(w, status, nil, message)
}
