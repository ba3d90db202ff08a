package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindNotFound
	KindInsufficientInventory
	KindInvalidOtp
	KindOtpExpired
	KindNoActiveOtp
	KindUnauthorized
	KindForbidden
	KindPaymentProvider
	KindSmsDelivery
)

var kindCodes = map[ErrorKind]string{
	KindUnexpected:            "unexpected",
	KindValidation:            "validation_error",
	KindNotFound:              "not_found",
	KindInsufficientInventory: "insufficient_inventory",
	KindInvalidOtp:            "invalid_otp",
	KindOtpExpired:            "otp_expired",
	KindNoActiveOtp:           "no_active_otp",
	KindUnauthorized:          "unauthorized",
	KindForbidden:             "forbidden",
	KindPaymentProvider:       "payment_provider_error",
	KindSmsDelivery:           "sms_delivery_failed",
}

func (k ErrorKind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindUnexpected]
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInsufficientInventory, KindInvalidOtp, KindOtpExpired, KindNoActiveOtp:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindPaymentProvider, KindSmsDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the single error value services hand back to handlers. Message
// is safe to show to the caller; Err carries the internal cause for logs.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func ValidationError(fields []string, message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

// KindOf reports the kind of err, KindUnexpected for anything that is not an
// *AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithAppError writes err using its kind. Unexpected errors are logged
// with their cause and answered with a generic message.
func RespondWithAppError(c *gin.Context, logger *zap.Logger, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind == KindUnexpected {
		logger.Error("unexpected error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   HTTPStatusText(http.StatusInternalServerError),
			Message: "Something went wrong. Please try again later.",
			Code:    KindUnexpected.String(),
		})
		return
	}

	status := appErr.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Warn("upstream failure",
			zap.String("path", c.FullPath()),
			zap.String("kind", appErr.Kind.String()),
			zap.Error(appErr.Err),
		)
	}

	c.JSON(status, ErrorResponse{
		Error:   HTTPStatusText(status),
		Message: appErr.Message,
		Code:    appErr.Kind.String(),
		Fields:  appErr.Fields,
	})
}

func joinFields(fields []string) string {
	return strings.Join(fields, ", ")
}
