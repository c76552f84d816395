package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/server/http/middleware"
)

// CurrentIdentity extracts the authenticated caller from context.
func CurrentIdentity(c *gin.Context) model.Identity {
	identity, _ := middleware.CurrentIdentity(c)
	return identity
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	switch domainErrors.KindOf(err) {
	case domainErrors.ErrNotFound:
		return http.StatusNotFound
	case domainErrors.ErrInvalidState, domainErrors.ErrValidation:
		return http.StatusBadRequest
	case domainErrors.ErrForbidden:
		return http.StatusForbidden
	case domainErrors.ErrAlreadyExists:
		return http.StatusConflict
	case domainErrors.ErrInvalidCredentials:
		return http.StatusUnauthorized
	case domainErrors.ErrUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": message}. Unknown errors never leak
// their text to the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
