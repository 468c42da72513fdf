package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RequestIDKey is the gin context key the request logger stores the id under.
const RequestIDKey = "request_id"

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

// ErrorResponse writes a failure envelope. err may be nil.
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	response := APIResponse{
		Success:   false,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(statusCode, response)
}

// ValidationErrorResponse answers 400 with one message per failed field.
func ValidationErrorResponse(c *gin.Context, err error) {
	var messages []string

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			messages = append(messages, validationMessage(fe))
		}
	} else {
		messages = append(messages, err.Error())
	}

	c.JSON(http.StatusBadRequest, APIResponse{
		Success:   false,
		Message:   "Validation failed",
		Error:     messages,
		RequestID: c.GetString(RequestIDKey),
	})
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "len":
		return field + " must be " + fe.Param() + " characters"
	case "hexadecimal":
		return field + " must be a hex object id"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "min":
		return field + " must be at least " + fe.Param()
	}
	return field + " is invalid"
}
