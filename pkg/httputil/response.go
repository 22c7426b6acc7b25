package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luckypig3400/NEC-Backend/pkg/errors"
)

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Message string `json:"message"`
}

// ListResponse wraps list endpoints.
type ListResponse struct {
	Results interface{} `json:"results"`
	Count   int64       `json:"count"`
}

// RespondWithSuccess sends the entity as-is with 200.
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondWithList sends a {results, count} body with 200.
func RespondWithList(c *gin.Context, results interface{}, count int64) {
	c.JSON(http.StatusOK, ListResponse{
		Results: results,
		Count:   count,
	})
}

// RespondWithError sends an error response. Validation and not-found errors keep
// their own message; anything else is a 500 carrying the underlying error text.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternal(err)
	}

	statusCode := appErr.StatusCode()
	message := appErr.Message
	if statusCode == http.StatusInternalServerError {
		message = err.Error()
	}

	// Recorded for the logging middleware.
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusCode, ErrorBody{Message: message})
}

// RespondWithBadRequest sends a 400 with the given message.
func RespondWithBadRequest(c *gin.Context, message string, err error) {
	RespondWithError(c, errors.NewBadRequest(message, err))
}
