package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"cruce-web/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. Field names in errors use the json tag.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateFilters checks a filter set and reports the first failure as a FilterValidationError.
func ValidateFilters(f models.QueryFilterSet) error {
	err := GetValidator().Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		return &models.FilterValidationError{
			Field:  fe.Field(),
			Value:  fmt.Sprint(fe.Value()),
			Reason: "failed " + reason,
		}
	}
	return &models.FilterValidationError{Field: "filters", Reason: err.Error()}
}
