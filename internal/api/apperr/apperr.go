// Package apperr collects the ad hoc gin.H{"error":...} call sites that
// would otherwise be scattered across internal/api/handlers into one
// tagged error taxonomy and a single response helper.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Code string

const (
	InvalidArgument Code = "INVALID_ARGUMENT"
	Unauthorized    Code = "UNAUTHORIZED"
	NotFound        Code = "NOT_FOUND"
	Conflict        Code = "CONFLICT"
	Internal        Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	InvalidArgument: http.StatusBadRequest,
	Unauthorized:    http.StatusUnauthorized,
	NotFound:        http.StatusNotFound,
	Conflict:        http.StatusConflict,
	Internal:        http.StatusInternalServerError,
}

// Error is a tagged application error carrying the taxonomy code alongside
// a human-readable message and, optionally, the underlying cause for
// logging.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidArgumentf(message string) *Error { return New(InvalidArgument, message) }
func NotFoundf(message string) *Error        { return New(NotFound, message) }
func Conflictf(message string) *Error        { return New(Conflict, message) }
func Internalf(cause error) *Error           { return Wrap(Internal, "internal error", cause) }

// RespondError renders err into the shared error envelope:
// {"error": {"code":..., "message":...}}. Any error not already an
// *Error is treated as INTERNAL and its message is not leaked to the
// client.
func RespondError(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internalf(err)
	}

	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := appErr.Message
	if appErr.Code == Internal {
		message = "internal error"
	}

	c.JSON(status, gin.H{"error": gin.H{
		"code":    appErr.Code,
		"message": message,
	}})
}
