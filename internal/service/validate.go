package service

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"todoTracker/internal/models/task"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return slices.Contains(task.Statuses, task.Status(fl.Field().String()))
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return task.Priority(fl.Field().String()).Rank() > 0
	})
	_ = v.RegisterValidation("label", func(fl validator.FieldLevel) bool {
		switch task.Label(fl.Field().String()) {
		case task.LabelNone, task.LabelRed, task.LabelOrange, task.LabelYellow, task.LabelGreen,
			task.LabelBlue, task.LabelPurple, task.LabelPink, task.LabelGray:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("permission", func(fl validator.FieldLevel) bool {
		switch task.Permission(fl.Field().String()) {
		case task.PermissionView, task.PermissionEdit, task.PermissionAdmin:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// validateInput runs struct validation and turns failures into a
// VALIDATION_ERROR carrying one entry per offending field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("input", err.Error())
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		constraint := fe.Tag()
		if fe.Param() != "" {
			constraint += "=" + fe.Param()
		}
		fields = append(fields, FieldError{Field: fieldPath(fe), Constraint: constraint})
	}
	return NewValidationErrors(fields)
}

// fieldPath drops the top-level struct name: "CreateTaskInput.tags[0]" -> "tags[0]"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
