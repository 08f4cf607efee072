package validation

import (
	"fmt"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a validator that reports fields by their json or form name
// and understands the "boolish" rule used for query flags.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("boolish", func(fl validatorv10.FieldLevel) bool {
		_, err := parseBoolish(fl.Field().String())
		return err == nil
	})
	return v
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// parseBoolish accepts the spellings browsers and HTTP clients commonly send for flags.
func parseBoolish(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on", "t", "y":
		return true, nil
	case "false", "0", "no", "off", "f", "n":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", s)
}

// messageFor turns a failed validation tag into a short human message.
func messageFor(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "boolish":
		return "value could not be parsed to a boolean"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}
