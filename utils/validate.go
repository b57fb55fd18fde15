package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct checks s against its validate tags and returns a message per
// failing field, keyed by JSON name. messages overrides the generated text for
// a field. A nil map means s is valid.
func ValidateStruct(s interface{}, messages map[string]string) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		if msg, ok := messages[name]; ok {
			fields[name] = msg
			continue
		}
		fields[name] = describe(fe)
	}
	return fields
}

// ValidateVar checks a single value against tag
func ValidateVar(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be %s or more", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "Enter a valid email"
	case "eqfield":
		return "Does not match"
	case "datetime":
		return "Invalid date format"
	}
	return fmt.Sprintf("Failed %s validation", fe.Tag())
}
