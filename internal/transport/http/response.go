package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	platformerrors "mealvision-server/internal/platform/errors"
)

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// RespondSuccess writes a success envelope.
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}, message string) {
	if message == "" {
		message = "ok"
	}
	c.JSON(httpStatus, APIResponse{
		Success: true,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	})
}

// RespondError writes a failure envelope.
func RespondError(c *gin.Context, httpStatus int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	})
}

// RespondDomainError maps a coded domain error onto its HTTP status. This is
// the only place that mapping lives; handlers never pick statuses for domain
// failures themselves.
func RespondDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch platformerrors.CodeOf(err) {
	case platformerrors.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case platformerrors.CodeRateLimited:
		status = http.StatusTooManyRequests
	case platformerrors.CodeQuotaExceeded:
		status = http.StatusPaymentRequired
	case platformerrors.CodeUnauthorized, platformerrors.CodeProviderError, platformerrors.CodeMalformedResponse:
		// Upstream provider trouble, including a misconfigured server-side
		// key, is a gateway problem from the client's point of view.
		status = http.StatusBadGateway
	case platformerrors.CodeStorageUnavailable, platformerrors.CodePermissionDenied:
		status = http.StatusServiceUnavailable
	default:
		if platformerrors.IsKind(err, platformerrors.KindDomain) {
			status = http.StatusBadRequest
		}
	}

	message := err.Error()
	var typed *platformerrors.Error
	if errors.As(err, &typed) {
		message = typed.Message
	}
	RespondError(c, status, message, nil)
}
