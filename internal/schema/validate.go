package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// InvalidSpecError reports a DocSpec that cannot be used.
type InvalidSpecError struct {
	DocType string
	Reason  string
}

func (e *InvalidSpecError) Error() string {
	if e.DocType == "" {
		return "invalid doc spec: " + e.Reason
	}
	return fmt.Sprintf("invalid doc spec %s: %s", e.DocType, e.Reason)
}

// Validate checks the structural invariants of a DocSpec.
func Validate(spec DocSpec) error {
	var problems []string

	if err := validate.Struct(spec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &InvalidSpecError{DocType: spec.DocType, Reason: err.Error()}
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if spec.SectionDetection != nil {
		sd := spec.SectionDetection
		if len(sd.HeaderTypes) > 0 && sd.TypeColumn == "" {
			problems = append(problems, "section_detection.header_types requires type_column")
		}
	}

	if len(problems) > 0 {
		return &InvalidSpecError{DocType: spec.DocType, Reason: strings.Join(problems, "; ")}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s out of range (%s %s)", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
