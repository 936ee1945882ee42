package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Workspace names become file names on export
	workspaceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

	inputFormats = map[string]bool{"": true, "gexf": true, "csv": true, "json": true}
)

// MaxWorkspaceName bounds the length of a workspace name
const MaxWorkspaceName = 64

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("workspace", func(fl validator.FieldLevel) bool {
		return ValidateWorkspaceName(fl.Field().String()) == nil
	})
	_ = validate.RegisterValidation("inputformat", func(fl validator.FieldLevel) bool {
		return inputFormats[fl.Field().String()]
	})
}

// Struct validates s against its validate tags
func Struct(s any) error {
	if s == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateWorkspaceName checks that name is usable as a file name
func ValidateWorkspaceName(name string) error {
	if name == "" {
		return errors.New("workspace name cannot be empty")
	}
	if len(name) > MaxWorkspaceName {
		return fmt.Errorf("workspace name '%s' exceeds maximum length of %d characters", name, MaxWorkspaceName)
	}
	if !workspaceNamePattern.MatchString(name) {
		return fmt.Errorf("workspace name '%s' is invalid (letters, digits, '_', '.' and '-' only)", name)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	errs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s: field is required", field))
		case "min", "gte":
			errs = append(errs, fmt.Errorf("%s: must be at least %s", field, param))
		case "max", "lte":
			errs = append(errs, fmt.Errorf("%s: must not exceed %s", field, param))
		case "gt":
			errs = append(errs, fmt.Errorf("%s: must be greater than %s", field, param))
		case "lt":
			errs = append(errs, fmt.Errorf("%s: must be less than %s", field, param))
		case "oneof":
			errs = append(errs, fmt.Errorf("%s: must be one of [%s]", field, param))
		case "workspace":
			errs = append(errs, fmt.Errorf("%s: invalid workspace name %q", field, e.Value()))
		case "inputformat":
			errs = append(errs, fmt.Errorf("%s: unsupported input format %q", field, e.Value()))
		default:
			errs = append(errs, fmt.Errorf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return errors.Join(errs...)
}
