package task

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// CreateInput carries the fields accepted when creating a task.
type CreateInput struct {
	Title       string  `json:"title" validate:"notblank"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// UpdateInput carries the fields of a full update. All three mutable
// fields are overwritten.
type UpdateInput struct {
	Title       string  `json:"title" validate:"notblank,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsCompleted bool    `json:"isCompleted"`
}

// ValidationError reports rejected input, keyed by wire field name.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validator: %v", err))
	}
	return v
}

// Validate checks the create rules: a non-blank title and a description
// of at most 1000 characters.
func (in CreateInput) Validate() error {
	return toValidationError(validate.Struct(in))
}

// Validate checks the update rules: a 3 to 200 character title and a
// description of at most 1000 characters.
func (in UpdateInput) Validate() error {
	return toValidationError(validate.Struct(in))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string][]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = append(ve.Fields[fe.Field()], fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "title":
		if fe.Tag() == "notblank" {
			return "Title is required"
		}
		return "Title must be between 3 and 200 characters"
	case "description":
		return "Description cannot exceed 1000 characters"
	}
	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}
