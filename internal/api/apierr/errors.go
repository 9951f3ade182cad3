package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/services/registry"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeAlreadyPresent      = "ALREADY_PRESENT"
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeFriendNotFound      = "FRIEND_NOT_FOUND"
	CodeResolverUnavailable = "RESOLVER_UNAVAILABLE"
	CodeShuttingDown        = "SHUTTING_DOWN"
	CodeTimeout             = "TIMEOUT"
	CodeRequestCanceled     = "REQUEST_CANCELED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is reported when the client went away before the
// response was ready. The body is rarely seen, but the access log keeps it.
const StatusClientClosedRequest = 499

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrAlreadyPresent):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyPresent, "Player is already a friend"}}
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Player does not exist"}}
	case errors.Is(err, model.ErrUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeResolverUnavailable, "Profile service is unavailable"}}
	case errors.Is(err, model.ErrFriendNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeFriendNotFound, "Player is not a friend"}}
	case errors.Is(err, model.ErrInvalidProfileID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Invalid profile id"}}
	case errors.Is(err, registry.ErrWorkerClosed):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeShuttingDown, "Server is shutting down"}}
	case errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Request timed out"}}
	case errors.Is(err, context.Canceled):
		return &httpError{StatusClientClosedRequest, APIError{CodeRequestCanceled, "Request was canceled"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// FromAddResult converts a non-added outcome into an error naming query.
// It returns nil for AddAdded.
func FromAddResult(result model.AddResult, query string) error {
	switch result.Outcome {
	case model.AddAdded:
		return nil
	case model.AddAlreadyPresent:
		return &httpError{http.StatusConflict, APIError{
			CodeAlreadyPresent,
			fmt.Sprintf("%s is already a friend", result.Entry.Name),
		}}
	case model.AddNotFound:
		if errors.Is(result.Cause, model.ErrNotFound) {
			return &httpError{http.StatusNotFound, APIError{
				CodeProfileNotFound,
				fmt.Sprintf("%s does not exist", query),
			}}
		}
		return &httpError{http.StatusServiceUnavailable, APIError{
			CodeResolverUnavailable,
			fmt.Sprintf("could not look up %s: profile service is unavailable", query),
		}}
	default:
		return NewInternalError()
	}
}

// NewFriendNotFoundError creates an error for a query that matches no friend
func NewFriendNotFoundError(query string) error {
	return &httpError{http.StatusNotFound, APIError{
		CodeFriendNotFound,
		fmt.Sprintf("%s is not a friend", query),
	}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
