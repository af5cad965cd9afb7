package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidRequest = "invalid_request"
	CodeGuideNotFound  = "guide_not_found"
	CodeUserNotFound   = "user_not_found"
	CodeNoCredits      = "no_credits"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeUpstream       = "upstream_error"
	CodeInternal       = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(err error) *Error { return New(http.StatusBadRequest, CodeInvalidRequest, err) }

func NotFound(code string, err error) *Error { return New(http.StatusNotFound, code, err) }

func NoCredits(err error) *Error { return New(http.StatusForbidden, CodeNoCredits, err) }

// Upstream hides provider/store detail from the caller; the wrapped error stays available for logs.
func Upstream(err error) *Error { return New(http.StatusInternalServerError, CodeUpstream, err) }

func Internal(err error) *Error { return New(http.StatusInternalServerError, CodeInternal, err) }

// From extracts an *Error from err, or wraps it as an internal error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
