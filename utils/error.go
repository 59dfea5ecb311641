package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"tourbook/config"
	"tourbook/database/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AppError is an operational error whose message is safe to show clients.
type AppError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, message string, err error) *AppError {
	return &AppError{StatusCode: status, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, nil)
}

func Internal(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

var dupKeyPattern = regexp.MustCompile(`dup key: \{ ?([\w.]+): "?([^",}]*)"?`)

// Classify maps any error to an operational AppError. The second result is
// false for errors not recognised as operational.
func Classify(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound("No document found with that ID"), true
	}
	var castErr *repository.CastError
	if errors.As(err, &castErr) {
		return NewAppError(http.StatusBadRequest, castErr.Error(), err), true
	}
	if mongo.IsDuplicateKeyError(err) {
		return NewAppError(http.StatusBadRequest, duplicateMessage(err), err), true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return NewAppError(http.StatusBadRequest, "Invalid input data. "+strings.Join(msgs, ". "), err), true
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return NewAppError(http.StatusBadRequest, "Invalid request body", err), true
	}
	var jwtErr *jwt.ValidationError
	if errors.As(err, &jwtErr) {
		if jwtErr.Errors&jwt.ValidationErrorExpired != 0 {
			return NewAppError(http.StatusUnauthorized, "Your token has expired! Please log in again.", err), true
		}
		return NewAppError(http.StatusUnauthorized, "Invalid token. Please log in again!", err), true
	}
	return Internal("Something went wrong!", err), false
}

func duplicateMessage(err error) string {
	m := dupKeyPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return "Duplicate field value. Please use another value!"
	}
	return fmt.Sprintf("Duplicate field value: %q. Please use another %s!", m[2], m[1])
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be below %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// RespondError writes the error body for err and aborts the chain.
func RespondError(c *gin.Context, err error) {
	appErr, operational := Classify(err)
	logger := RequestLogger(c)

	body := ErrorResponse{Status: "fail", Message: appErr.Message}
	if appErr.StatusCode >= http.StatusInternalServerError {
		body.Status = "error"
		logger.Error("Request failed", zap.Error(err))
	} else {
		logger.Warn(appErr.Message, zap.Int("status", appErr.StatusCode))
	}

	if !config.IsProduction() {
		body.Error = err.Error()
	} else if !operational {
		body.Message = "Something went wrong!"
	}
	c.AbortWithStatusJSON(appErr.StatusCode, body)
}

// ErrorHandler recovers panics and renders the last error a handler
// attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				RequestLogger(c).Error("Unhandled panic", zap.Any("error", rec))
				RespondError(c, Internal("Something went wrong!", fmt.Errorf("panic: %v", rec)))
			}
		}()
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RespondError(c, c.Errors.Last().Err)
	}
}

// RequestLogger returns the logger attached to the request, or the global one.
func RequestLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get(RequestLoggerKey); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return GetLogger()
}
