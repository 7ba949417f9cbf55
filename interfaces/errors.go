package interfaces

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-platform/domain"
)

// HTTPStatus returns the status code for an error returned by a use case.
// Model and store failures fall through to 500.
func HTTPStatus(err error) int {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respond(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(HTTPStatus(err), gin.H{
		"success":   false,
		"error":     err.Error(),
		"retryable": domain.IsRetryable(err),
	})
}

// respondBindError reports a request body or query that failed binding.
func respondBindError(c *gin.Context, err error) {
	respondError(c, &domain.ValidationError{Message: err.Error()})
}
