package helpers

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations registers the custom rules used by request
// structs. It is applied both to gin's binding engine and to NewValidator.
func RegisterCustomValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterValidation("mobile", validateMobile)
	v.RegisterValidation("timeformat", validateTimeFormat)
}

// NewValidator returns a validator reading the same `binding` tags gin uses.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterCustomValidations(v)
	return v
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func validateMobile(fl validator.FieldLevel) bool {
	_, err := NormalizeMobile(fl.Field().String())
	return err == nil
}

// validateTimeFormat checks if string is valid HH:MM format
func validateTimeFormat(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

// InvalidFields lists the offending field names of a validation failure.
func InvalidFields(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field())
	}
	return fields
}

func TranslateValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		var messages []string
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				messages = append(messages, field+" is required")
			case "email":
				messages = append(messages, "invalid email format")
			case "min":
				messages = append(messages, field+" must be at least "+fe.Param())
			case "max":
				messages = append(messages, field+" must be at most "+fe.Param())
			case "len":
				messages = append(messages, field+" must be exactly "+fe.Param()+" characters")
			case "numeric":
				messages = append(messages, field+" must contain only numbers")
			case "mobile":
				messages = append(messages, field+" must be a 10-digit Indian mobile number")
			case "timeformat":
				messages = append(messages, field+" must be in HH:MM format (e.g., 14:00)")
			case "oneof":
				messages = append(messages, field+" must be one of: "+fe.Param())
			default:
				messages = append(messages, field+" is invalid")
			}
		}
		return strings.Join(messages, ", ")
	}
	return err.Error()
}

// BindingError converts a binding or validation failure to a validation
// AppError listing the offending fields when they are known.
func BindingError(err error) *AppError {
	fields := InvalidFields(err)
	if fields == nil {
		return WrapError(KindValidation, "Invalid request body", err)
	}
	return &AppError{
		Kind:    KindValidation,
		Message: "Invalid fields: " + joinFields(fields) + ". " + TranslateValidationError(err),
		Fields:  fields,
		Err:     err,
	}
}

// ValidateStruct runs v over s and converts failures with BindingError.
func ValidateStruct(v *validator.Validate, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return BindingError(err)
	}
	return nil
}
