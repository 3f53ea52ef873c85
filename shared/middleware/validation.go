package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/visadesk/visadesk/shared/notice"
)

const MsgInvalidForm = "Please check the highlighted fields"

var validate = newValidator()

// newValidator reports fields by their JSON names, which is what the forms post.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
	Notice  notice.Notice     `json:"notice"`
}

func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}

	details := make([]ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Type:    fe.Tag(),
		})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "url":
		return "Invalid URL"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "Use the YYYY-MM-DD date format"
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
		Notice:  notice.Error(MsgInvalidForm),
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithNotice sends a notice with no payload.
func RespondWithNotice(c *gin.Context, code int, n notice.Notice) {
	c.JSON(code, gin.H{
		"notice": n,
	})
}

// RespondWithData sends a payload and, when non-nil, the notice that goes with it.
func RespondWithData(c *gin.Context, code int, data any, n *notice.Notice) {
	body := gin.H{"data": data}
	if n != nil {
		body["notice"] = n
	}
	c.JSON(code, body)
}

// RespondWithNotices sends one notice per item of a batch operation.
func RespondWithNotices(c *gin.Context, code int, data any, notices []notice.Notice) {
	c.JSON(code, gin.H{
		"data":    data,
		"notices": notices,
	})
}
