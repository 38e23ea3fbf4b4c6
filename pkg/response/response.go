package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response body. Every endpoint, success or
// failure, answers with this shape.
type Envelope struct {
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Error     any    `json:"error,omitempty"`
}

// Success writes a success envelope.
func Success(c *gin.Context, status int, data any, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	if data == nil {
		data = []any{}
	}
	c.JSON(status, Envelope{
		Status:    status,
		RequestID: c.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
	})
}

// Error writes a failure envelope. Data is always an empty array so
// clients can decode it uniformly.
func Error(c *gin.Context, status int, message string, details any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, Envelope{
		Status:    status,
		RequestID: c.GetString("request_id"),
		Success:   false,
		Message:   message,
		Data:      []any{},
		Error:     details,
	})
}

// AbortError writes a failure envelope and aborts the handler chain.
// Middleware uses this for the 403 on protected routes.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Status:    status,
		RequestID: c.GetString("request_id"),
		Success:   false,
		Message:   message,
		Data:      []any{},
	})
}
