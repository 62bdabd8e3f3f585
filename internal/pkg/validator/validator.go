package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// Validate checks a request DTO and returns an INVALID_REQUEST error listing
// the failed fields.
func Validate(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reasons": Reasons(err),
		})
	}
	return nil
}

// ValidateSpot checks the ParkingSpot invariants: coordinates in range,
// non-negative counts, availability within capacity.
func ValidateSpot(spot domain.ParkingSpot) error {
	if err := validate.Struct(spot); err != nil {
		return errors.Validation(Reasons(err))
	}
	return nil
}

// Reasons turns validator field errors into stable snake_case reasons.
func Reasons(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reasons = append(reasons, reason(fe))
	}
	return reasons
}

func reason(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + "_required"
	case "ltefield":
		if field == "available_count" {
			return "available_exceeds_capacity"
		}
		return field + "_exceeds_" + strings.ToLower(fe.Param())
	case "gt", "gte", "lt", "lte", "min", "max":
		switch field {
		case "latitude", "longitude", "lat", "lon":
			return field + "_out_of_range"
		case "capacity", "available_count":
			return field + "_negative"
		}
		if fe.Kind() == reflect.String {
			return field + "_too_long"
		}
		return field + "_out_of_range"
	case "oneof":
		return field + "_unknown"
	}
	return fmt.Sprintf("%s_failed_%s", field, fe.Tag())
}

// GetValidator exposes the shared instance for custom registrations.
func GetValidator() *validator.Validate {
	return validate
}
