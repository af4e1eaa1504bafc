// Package service defines the suggestion backend interface and the hosted
// HTTP implementation the engine talks to.
package service

import (
	"context"
	"errors"

	"codetab/types"
)

// SuggestionService produces completion or edit suggestions for a file
// context. Pagination uses ResponseContext.NextToken.
type SuggestionService interface {
	GenerateSuggestions(ctx context.Context, req types.GenerateSuggestionsRequest) (*types.GenerateSuggestionsResponse, error)
}

// ServiceError is a failure reported by the suggestion backend, carrying the
// backend's error classification for telemetry.
type ServiceError struct {
	Code       string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ConnectionExpiredError marks an authentication failure the host must
// surface to the user; the engine returns an empty result without retrying.
type ConnectionExpiredError struct {
	Message string
}

func (e *ConnectionExpiredError) Error() string {
	return e.Message
}

// IsConnectionExpired reports whether err is an authentication expiry.
func IsConnectionExpired(err error) bool {
	var expired *ConnectionExpiredError
	return errors.As(err, &expired)
}

// ReasonForError maps an error onto the coarse failure reason recorded in
// telemetry.
func ReasonForError(err error) string {
	if err == nil {
		return ""
	}
	if IsConnectionExpired(err) {
		return "CredentialsExpired"
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		switch {
		case serviceErr.StatusCode == 429:
			return "Throttling"
		case serviceErr.StatusCode >= 500:
			return "ServiceUnavailable"
		case serviceErr.Code != "":
			return serviceErr.Code
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Cancelled"
	}
	return "Error"
}
