// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
)

var validate *validator.Validate

var productNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-.]+$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("product_name", validateProductName)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Product names allow alphanumerics, spaces, hyphens and dots only.
func validateProductName(fl validator.FieldLevel) bool {
	return productNamePattern.MatchString(fl.Field().String())
}

func GetValidationErrors(err error) []apperrors.FieldError {
	var fieldErrors []apperrors.FieldError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			fieldErrors = append(fieldErrors, apperrors.FieldError{
				Field:   strings.ToLower(e.Field()),
				Message: getValidationMessage(e),
			})
		}
	}

	return fieldErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "lte":
		return e.Field() + " must be at most " + e.Param()
	case "product_name":
		return "Product name can only contain alphanumeric characters, spaces, hyphens, and dots"
	default:
		return e.Field() + " is invalid"
	}
}
