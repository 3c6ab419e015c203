package course

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNotPublishable is returned when a course breaks a publish rule.
var ErrNotPublishable = errors.New("course not publishable")

const capstoneTypeTag = "capstonetype"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(capstoneTypeTag, func(fl validator.FieldLevel) bool {
		return CapstoneType(fl.Field().String()).Valid()
	})
	return v
}

// ValidateForPublish checks the rules a course must meet before it is
// published: exactly ten modules, at most two quizzes, four options per
// question with a correct index among them, and a well-formed capstone.
// Reading a course never applies these rules.
func ValidateForPublish(c *Course) error {
	if c == nil {
		return fmt.Errorf("%w: nil course", ErrNotPublishable)
	}
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate course: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrNotPublishable, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	// Namespace is "Course.modules[3].title"; drop the root type.
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "len":
		return fmt.Sprintf("%s must have exactly %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case capstoneTypeTag:
		return fmt.Sprintf("%s must be %q or %q", field, CapstoneProject, CapstoneFinalExam)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
