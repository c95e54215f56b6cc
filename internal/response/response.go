// Package response implements the API envelope. Every endpoint answers
// HTTP 200; clients read the application-level error code instead.
package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "video-trimmer/pkg/errors"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Error  int32  `json:"error"`            // apperrors code, 0 on success
	Msg    string `json:"msg"`              // human-readable outcome
	Detail string `json:"detail,omitempty"` // extra context for failures
	Data   any    `json:"data"`             // operation payload, nil on error
}

// Success answers with data and a zero error code.
func Success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Error: 0,
		Msg:   "Success",
		Data:  data,
	})
}

// Error answers with an explicit code and message and no payload.
func Error(c *gin.Context, code int, msg string) {
	c.JSON(200, Response{
		Error: int32(code),
		Msg:   msg,
		Data:  nil,
	})
}

// FromError converts an error to a Response. AppErrors anywhere in the
// chain contribute their code, message and detail; anything else reports
// CodeUnknown with the raw error text.
func FromError(err error) Response {
	if err == nil {
		return Response{
			Error: 0,
			Msg:   "Success",
		}
	}

	var detail string
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		detail = appErr.Detail
	}

	return Response{
		Error:  int32(apperrors.GetCode(err)),
		Msg:    apperrors.GetMessage(err),
		Detail: detail,
		Data:   nil,
	}
}

// ErrorResponse answers with the envelope derived from err.
func ErrorResponse(c *gin.Context, err error) {
	c.JSON(200, FromError(err))
}
