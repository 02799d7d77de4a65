package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abrahamjose02/Article-Feed-Api/internal/logger"
	"github.com/abrahamjose02/Article-Feed-Api/internal/services"
	"go.uber.org/zap"
)

const serverErrorMessage = "Server error"

// errorStatus maps a service error to a status code and client message.
// notFound is used as the message for services.ErrNotFound.
func errorStatus(err error, notFound string) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, services.ErrDuplicateAccount):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, services.ErrInvalidActivation):
		return http.StatusBadRequest, "Invalid Activation Code"
	case errors.Is(err, services.ErrNotFound):
		if notFound == "" {
			notFound = "Not found"
		}
		return http.StatusNotFound, notFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "User not authenticated"
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, services.ErrBlockedConflict):
		return http.StatusBadRequest, "You cannot react to a blocked article."
	case errors.Is(err, services.ErrOppositeReaction):
		return http.StatusBadRequest, "You must undo your opposite reaction first."
	case errors.Is(err, services.ErrAlreadyBlocked):
		return http.StatusBadRequest, "You have already blocked this article."
	case errors.Is(err, services.ErrUpload):
		return http.StatusInternalServerError, "Image upload failed"
	default:
		return http.StatusInternalServerError, serverErrorMessage
	}
}

// fail writes the response for err. Server-side failures are logged with
// the request id; client errors are not.
func fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, notFound string) {
	status, message := errorStatus(err, notFound)
	if status >= http.StatusInternalServerError {
		logger.ForRequest(r, log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, message)
}

// validationMessage strips the sentinel prefix so clients see only the
// detail, e.g. "image is required".
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), services.ErrValidation.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
