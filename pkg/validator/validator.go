package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/nyaruka/phonenumbers"
)

// DateLayouts are the accepted encodings of date fields, most specific last.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
}

type CustomValidator struct {
	validator   *validator.Validate
	phoneRegion string
}

// NewValidator builds a validator whose phone tag parses numbers without a
// country prefix as belonging to phoneRegion (e.g. "KE").
func NewValidator(phoneRegion string) *CustomValidator {
	cv := &CustomValidator{
		validator:   validator.New(),
		phoneRegion: strings.ToUpper(phoneRegion),
	}

	// Report fields by their JSON names so messages match the request body.
	cv.validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = cv.validator.RegisterValidation("notblank", validators.NotBlank)
	_ = cv.validator.RegisterValidation("isodate", validateISODate)
	_ = cv.validator.RegisterValidation("phone", cv.validatePhone)

	return cv
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			// "len=0|email" style tags accept an empty value; report the real rule.
			if i := strings.LastIndex(tag, "|"); i >= 0 {
				tag = tag[i+1:]
				if j := strings.Index(tag, "="); j >= 0 {
					tag = tag[:j]
				}
			}
			switch tag {
			case "required":
				errors[field] = field + " is required"
			case "notblank":
				errors[field] = field + " cannot be blank"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				if e.Param() == "1" {
					errors[field] = field + " cannot be empty"
				} else {
					errors[field] = field + " must be at least " + e.Param() + " characters"
				}
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				if e.Param() == "" {
					errors[field] = field + " has an unsupported value"
				} else {
					errors[field] = field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
				}
			case "isodate":
				errors[field] = field + " must be a date (YYYY-MM-DD or RFC 3339)"
			case "phone":
				errors[field] = field + " must be a valid phone number"
			case "alphanum":
				errors[field] = field + " must contain only letters and digits"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}

// ParseDate parses s using the first matching layout in DateLayouts.
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func validateISODate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := ParseDate(s)
	return err == nil
}

func (cv *CustomValidator) validatePhone(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	num, err := phonenumbers.Parse(s, cv.phoneRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
