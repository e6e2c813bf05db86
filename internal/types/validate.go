package types

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern     = regexp.MustCompile(`^\+?\d{7,15}$`)
	linkedinPattern  = regexp.MustCompile(`^(https?://)?(www\.)?linkedin\.com/.+`)
	phoneStripper    = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the resume-specific rules registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
			return yearMonthPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("knownsection", func(fl validator.FieldLevel) bool {
			return IsKnownSection(fl.Field().String())
		})
		v.RegisterStructValidation(validateContact, Contact{})
		validate = v
	})
	return validate
}

func validateContact(sl validator.StructLevel) {
	c := sl.Current().Interface().(Contact)
	if !ContactValueValid(c.Type, c.Value) {
		sl.ReportError(c.Value, "Value", "value", "contactvalue", c.Type)
	}
}

// ContactValueValid checks a contact value against the format its type implies.
// Unrecognized types are accepted as free text.
func ContactValueValid(kind, value string) bool {
	value = strings.TrimSpace(value)
	switch strings.ToLower(kind) {
	case "email":
		return emailPattern.MatchString(value)
	case "phone":
		return phonePattern.MatchString(phoneStripper.Replace(value))
	case "linkedin":
		return linkedinPattern.MatchString(value)
	default:
		return value != ""
	}
}

// FieldError describes one failed field rule
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is returned when request data fails validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Validate checks the resume data against its field rules
func (d *ResumeData) Validate() error {
	return structError(Validator().Struct(d))
}

// Validate checks that the descriptor names a known section and change type
func (u *UpdateDescriptor) Validate() error {
	return structError(Validator().Struct(u))
}

// Validate checks a polish request
func (p *PolishRequest) Validate() error {
	return structError(Validator().Struct(p))
}

func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Namespace(),
			Rule:  fe.Tag(),
		})
	}
	return out
}
