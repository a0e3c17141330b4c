package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/pipeline-engine/internal/interfaces/http/middleware"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps err to its HTTP status and writes the error body.  Server
// errors are masked; missing reference data reads as an incomplete pipeline
// configuration.
func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{
		Code:      string(code),
		Message:   errors.UserMessage(err),
		RequestID: middleware.GetRequestID(c),
	}
	if status >= http.StatusInternalServerError {
		if code == errors.CodeUnknown {
			code = errors.ErrCodeInternal
			resp.Code = string(code)
		}
		resp.Message = errors.DefaultMessageForCode(code)
	} else {
		var ae *errors.AppError
		if stderrors.As(err, &ae) {
			resp.Detail = ae.Detail
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// bindJSON decodes the request body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, errors.InvalidParam("malformed request body").WithDetail(err.Error()))
		return false
	}
	return true
}

//Personal.AI order the ending
