// Package server provides the HTTP REST API for the hiring agent.
package server

import (
	"errors"
	"net/http"

	"github.com/nerdintosubs/hiring-agent/internal/channel"
	"github.com/nerdintosubs/hiring-agent/internal/recaptcha"
	"github.com/nerdintosubs/hiring-agent/internal/store"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// ErrBadRequest indicates a malformed request the validator never saw,
// such as unreadable JSON or a bad query parameter.
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return e.Message
}

// ErrMisconfigured indicates a server setting blocks the request.
type ErrMisconfigured struct {
	Message string
}

func (e *ErrMisconfigured) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound     *store.NotFoundError
		conflict     *store.ConflictError
		validation   *types.ValidationError
		badRequest   *ErrBadRequest
		signature    *channel.SignatureError
		rejected     *recaptcha.VerificationError
		unavailable  *recaptcha.ServiceError
		misconfigure *ErrMisconfigured
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &signature), errors.As(err, &rejected):
		return http.StatusForbidden
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &misconfigure):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
