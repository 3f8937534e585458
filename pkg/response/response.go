package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the JSON shape every endpoint returns. Code 0 means success;
// errors carry the HTTP status as the code.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListPayload wraps collection results (samples, places, discovered patterns)
// with their length.
type ListPayload struct {
	Items interface{} `json:"data"`
	Count int         `json:"count"`
}

// Success sends a 200 envelope around the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// List sends a 200 envelope around a collection and its length.
func List(c *gin.Context, items interface{}, count int) {
	Success(c, ListPayload{Items: items, Count: count})
}

// Error sends an error envelope with the given HTTP status.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Envelope{
		Code:    code,
		Message: message,
	})
}

// BadRequest rejects a malformed or out-of-range request.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound reports a missing resource.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError reports a failure in storage or an upstream collaborator.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
