package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

// status maps an error kind to the HTTP status and the error code sent to
// the client.
func status(err error) (int, string) {
	var persistErr *common.PostNotifyPersistError
	switch {
	case errors.As(err, &persistErr):
		return http.StatusBadGateway, "reply_not_recorded"
	case errors.Is(err, common.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too_many_attempts"
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, common.ErrorTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, common.ErrorUpstream):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, name := status(err)

	msg := err.Error()
	switch {
	case code == http.StatusUnauthorized:
		// Do not tell an unknown email from a wrong password or a bad token.
		msg = "unauthorized"
	case code >= http.StatusInternalServerError:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(code)
		if name == "reply_not_recorded" {
			msg = "reply was sent but the request could not be marked replied"
		}
	}

	writeErrorBody(w, code, name, msg)
}
