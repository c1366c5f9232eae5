package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"aelon-backend/internal/common/errors"
)

// RequestID assigns every request an ID, honoring one supplied by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Recovery converts panics into 500 responses with a logged stack.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Str("request_id", getRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		sendErrorResponse(c, errors.New(errors.ErrCodeInternal, "Internal server error"))
	})
}

// ErrorHandler turns errors recorded on the gin context into JSON responses.
// Handlers call c.Error(err) and return; the mapping to a status code lives here.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.Wrap(err, errors.ErrCodeInternal, "Unhandled error")
		}
		sendErrorResponse(c, appErr)
	}
}

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError) {
	status := httpStatus(appErr)

	evt := log.Info()
	if status >= http.StatusInternalServerError {
		evt = log.Error().Err(appErr.Cause)
	}
	evt.
		Str("request_id", getRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code)).
		Msg(appErr.Message)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: getRequestID(c),
	})
}

func httpStatus(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeBadRequest,
		errors.ErrCodeAlreadyClaimed, errors.ErrCodeAlreadyLinked,
		errors.ErrCodeAlreadyInProgress, errors.ErrCodeCycleNotComplete:
		return http.StatusBadRequest
	case errors.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}
