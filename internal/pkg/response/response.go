// internal/pkg/response/response.go
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error shape every client of the API parses: {error, code}.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageBody is the generic acknowledgement body.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes data as is; list endpoints return bare arrays or envelopes.
func JSON(c *gin.Context, status int, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, data)
}

// Message sends a {message} acknowledgement.
func Message(c *gin.Context, status int, message string) {
	JSON(c, status, MessageBody{Message: message})
}

// Error aborts the chain and sends an {error, code} body.
func Error(c *gin.Context, status int, message, code string) {
	// Abort before writing so later handlers never run.
	c.Abort()
	c.JSON(status, ErrorBody{Error: message, Code: code})
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message, "")
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, "unauthorized")
}

// Forbidden sends a 403 Forbidden response with a machine readable code.
func Forbidden(c *gin.Context, code, message string) {
	Error(c, http.StatusForbidden, message, code)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, "not_found")
}

// PaymentRequired sends the 402 the client maps to "subscription required".
func PaymentRequired(c *gin.Context, message string) {
	Error(c, http.StatusPaymentRequired, message, "subscription_required")
}

// Internal sends a 500 without leaking the cause.
func Internal(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message, "")
}
