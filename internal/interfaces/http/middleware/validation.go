package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/storesync/backend/internal/interfaces/http/dto"
)

// SetupValidator makes binding errors name fields by their JSON key
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// HandleValidationError answers a failed ShouldBindJSON with 400. Field
// failures are listed per field; anything else is reported as invalid JSON.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, getRequestID(c)))
}

// FormatValidationErrors builds the error envelope for a binding error
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Request body is not valid JSON for this endpoint", requestID)
	}

	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fieldPath(fe), Message: validationMessage(fe)}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// fieldPath drops the root struct from the namespace:
// "OrderWebhookRequest.line_items[0].quantity" becomes "line_items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

var validationMessages = map[string]func(fe validator.FieldError) string{
	"required": func(validator.FieldError) string { return "This field is required" },
	"email":    func(validator.FieldError) string { return "Invalid email format" },
	"url":      func(validator.FieldError) string { return "Invalid URL format" },
	"oneof":    func(fe validator.FieldError) string { return "Must be one of: " + fe.Param() },
	"gt":       func(fe validator.FieldError) string { return "Must be greater than " + fe.Param() },
	"gte":      func(fe validator.FieldError) string { return "Must be greater than or equal to " + fe.Param() },
	"min": func(fe validator.FieldError) string {
		switch fe.Kind() {
		case reflect.String:
			return "Must be at least " + fe.Param() + " characters"
		case reflect.Slice, reflect.Array, reflect.Map:
			return "Must contain at least " + fe.Param() + " item(s)"
		}
		return "Must be at least " + fe.Param()
	},
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := validationMessages[fe.Tag()]; ok {
		return msg(fe)
	}
	return "Invalid value"
}
