package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"fanpool/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Response is the envelope of every API response
type Response struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Kind       service.ErrorKind `json:"kind"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	RetryAfter int               `json:"retry_after,omitempty"`
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Data: data})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Error: &ErrorBody{
		Kind:    service.KindValidation,
		Code:    service.ErrInvalidRequest.Code,
		Message: message,
	}})
}

// fail maps a service error onto an HTTP status and error body
func fail(c *gin.Context, err error) {
	bizErr := service.AsError(err)
	status := statusFor(bizErr)

	body := &ErrorBody{
		Kind:    bizErr.Kind,
		Code:    bizErr.Code,
		Message: bizErr.Message,
		Details: bizErr.Details,
	}
	if bizErr.RetryAfter > 0 {
		body.RetryAfter = int(math.Ceil(bizErr.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(body.RetryAfter))
	}

	fields := log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"code":   bizErr.Code,
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		log.WithFields(fields).WithError(err).Error("Request failed")
		// Internal causes are not exposed
		body.Message = service.ErrDependency.Message
		body.Details = nil
	} else {
		log.WithFields(fields).Debug("Request rejected")
	}

	c.JSON(status, Response{Error: body})
}

func statusFor(err *service.Error) int {
	if errors.Is(err, service.ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	switch err.Kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindPrecondition:
		return http.StatusUnprocessableEntity
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}
