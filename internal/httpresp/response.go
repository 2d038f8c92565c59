package httpresp

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/booking-engine/internal/httperr"
)

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func List[T any](c *gin.Context, data []T) {
	c.JSON(http.StatusOK, ListResponse[T]{
		Data:  data,
		Total: len(data),
	})
}

// Envelope is the body of the public booking routes.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Fail writes err in the envelope format. Business errors carry their code
// in readable form ("slot_unavailable" becomes "slot unavailable"); any
// other error is reported as internal.
func Fail(c *gin.Context, err error) {
	be, ok := httperr.AsBusiness(err)
	if !ok {
		FailCode(c, http.StatusInternalServerError, "internal_error")
		return
	}
	FailCode(c, httperr.StatusOf(err), be.Code)
}

func FailCode(c *gin.Context, status int, code string) {
	c.JSON(status, Envelope{
		Success:   false,
		Error:     strings.ReplaceAll(code, "_", " "),
		ErrorCode: code,
	})
}
