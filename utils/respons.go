package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse is the envelope every endpoint answers with.
type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError attaches err to the request so the request log carries it.
// Client errors echo err's message; server errors only expose the status
// text.
func RespondError(c *gin.Context, code int, err error) {
	_ = c.Error(err)

	message := err.Error()
	if code >= http.StatusInternalServerError {
		message = http.StatusText(code)
	}
	c.JSON(code, JSONResponse{Status: false, Message: message})
}
