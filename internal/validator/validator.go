package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/placement-prep/learning-service/internal/models"
)

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground struct validation plus the custom tags the
// request DTOs use.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerDomainRules()

	return v
}

// Validate runs struct validation and returns nil on success.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

// ToValidationErrors converts a go-playground error into our error type.
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		errors = append(errors, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}

	return errors
}

func (v *Validator) registerDomainRules() {
	v.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		return models.Difficulty(fl.Field().String()).IsValid()
	})

	v.validate.RegisterValidation("assessment_type", func(fl validator.FieldLevel) bool {
		switch models.AssessmentType(fl.Field().String()) {
		case models.TypeScheduled, models.TypePractice, models.TypeRandom,
			models.TypePlacement, models.TypeTargeted, models.TypeResume:
			return true
		}
		return false
	})

	// Student ids come from the identity provider; be strict about shape,
	// not about format.
	v.validate.RegisterValidation("student_id", func(fl validator.FieldLevel) bool {
		id := strings.TrimSpace(fl.Field().String())
		return len(id) >= 1 && len(id) <= 128
	})

	v.validate.RegisterValidation("company_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 1 && len(name) <= 200
	})
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "difficulty_level":
		return "must be one of Easy, Medium, Hard"
	case "assessment_type":
		return "is not a valid assessment type"
	case "student_id":
		return "is not a valid student id"
	case "company_name":
		return "is not a valid company name"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
