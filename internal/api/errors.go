package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rtlscribe/internal/stt"
	"rtlscribe/internal/utils"
)

// statusFor maps pipeline errors to an HTTP status and an error kind.
func statusFor(err error) (int, string) {
	var exhausted *stt.RateLimitExhaustedError
	var service *stt.ServiceError

	switch {
	case errors.Is(err, stt.ErrNoCredentials):
		return http.StatusServiceUnavailable, "configuration"
	case errors.Is(err, stt.ErrAudioTooLarge):
		return http.StatusRequestEntityTooLarge, "audio_too_large"
	case errors.Is(err, stt.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &exhausted):
		return http.StatusTooManyRequests, "rate_limit_exhausted"
	case errors.As(err, &service):
		return http.StatusBadGateway, "service_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes err using the shared status mapping. Exhausted pools get a
// Retry-After header with the suggested cool-down.
func (h *Handler) fail(c *gin.Context, err error) {
	status, kind := statusFor(err)
	msg := err.Error()

	var exhausted *stt.RateLimitExhaustedError
	if errors.As(err, &exhausted) {
		secs := int(math.Ceil(exhausted.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(secs))
		msg = fmt.Sprintf("all API keys are rate limited, please wait %d seconds and try again", secs)
	}

	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		h.logger.Error("request failed", "status", status, "kind", kind, "err", err)
	} else {
		h.logger.Warn("request rejected", "status", status, "kind", kind, "err", err)
	}
	utils.ErrorWithKind(c, status, kind, msg)
}
