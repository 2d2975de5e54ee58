package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/career-coach/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "career-coach"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
	// Expose allows the error text to reach the client. Otherwise Message
	// is sent in its place.
	Expose  bool
	Message string
}

var internalError = mappedError{
	HTTPStatus: http.StatusInternalServerError,
	Reason:     "internalError",
	Status:     "INTERNAL",
	Message:    "internal server error",
}

// errorMappings is checked in order; the first sentinel matched wins.
var errorMappings = []struct {
	target error
	mapped mappedError
}{
	{usecase.ErrProfileUpdateFailed, mappedError{http.StatusInternalServerError, "profileUpdateFailed", "INTERNAL", true, ""}},
	{usecase.ErrInvalidInput, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT", true, ""}},
	{usecase.ErrNotFound, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND", true, ""}},
	{usecase.ErrUnauthorized, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED", true, ""}},
	// Upstream failures carry response bodies and decode details.
	{usecase.ErrMalformedResponse, mappedError{http.StatusBadGateway, "malformedUpstreamResponse", "UNAVAILABLE", false, "upstream returned an invalid response"}},
	{usecase.ErrDependencyUnavailable, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE", false, "upstream service unavailable"}},
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(_ context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(err)
	message := mapped.Message
	if mapped.Expose {
		message = err.Error()
	}
	writeMappedError(w, mapped, message)
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeMappedError(w, internalError, internalError.Message)
}

func writeMappedError(w http.ResponseWriter, mapped mappedError, message string) {
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors: []googleErrorItem{{
				Domain:  errorDomain,
				Reason:  mapped.Reason,
				Message: message,
			}},
		},
	})
}

func mapError(err error) mappedError {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.mapped
		}
	}
	return internalError
}
