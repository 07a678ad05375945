// Package validation checks schema entities before they enter a store or are
// accepted by a backend.
//
// It combines go-playground/validator struct tags on the models with the
// rules that tags cannot express, such as box kinds and link endpoints.
//
// # Usage Example
//
//	v := validation.New()
//	result := v.ValidateBox(box)
//	if !result.Valid {
//	    for _, err := range result.Errors {
//	        fmt.Printf("%s: %s\n", err.Field, err.Message)
//	    }
//	}
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"evalgo.org/schemaeditor/models"
)

// Validator validates schema entities.
type Validator struct {
	// structValidator validates Go struct constraints and tags
	structValidator *validator.Validate
}

// ValidationError represents a single validation error with field-level details.
type ValidationError struct {
	// Field is the name of the field that failed validation
	Field string `json:"field"`

	// Message describes why the validation failed
	Message string `json:"message"`

	// Value is the invalid value that caused the error (optional)
	Value interface{} `json:"value,omitempty"`
}

// ValidationResult represents the complete result of a validation operation.
type ValidationResult struct {
	// Valid is true if validation passed, false otherwise
	Valid bool `json:"valid"`

	// Errors contains all validation errors found (empty if Valid is true)
	Errors []ValidationError `json:"errors,omitempty"`
}

// Err converts an invalid result into an error, or returns nil.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(parts, "; "))
}

// ErrInvalid is wrapped by every error returned from ValidationResult.Err.
var ErrInvalid = errors.New("validation failed")

// New creates a new Validator instance.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{structValidator: v}
}

// ValidateBox validates a box.
func (v *Validator) ValidateBox(box *models.Box) *ValidationResult {
	if box == nil {
		return invalid(ValidationError{Field: "box", Message: "Box is required"})
	}

	errs := v.structErrors(box)
	if box.Kind != "" && !models.IsBoxKind(box.Kind) {
		errs = append(errs, ValidationError{
			Field:   "kind",
			Message: "Kind is not a box kind",
			Value:   box.Kind,
		})
	}
	return result(errs)
}

// ValidateDictionary validates a dictionary.
func (v *Validator) ValidateDictionary(dict *models.Dictionary) *ValidationResult {
	if dict == nil {
		return invalid(ValidationError{Field: "dictionary", Message: "Dictionary is required"})
	}

	errs := v.structErrors(dict)
	if dict.Kind != "" && dict.Kind != models.KindDictionary {
		errs = append(errs, ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("Kind must be %s", models.KindDictionary),
			Value:   dict.Kind,
		})
	}
	return result(errs)
}

// ValidateLink validates the shape of a link: both endpoints present and a
// known connection type.
func (v *Validator) ValidateLink(link models.ExtendedLink) *ValidationResult {
	var errs []ValidationError
	if link.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "Name is required"})
	}
	for _, side := range []struct {
		field string
		ep    *models.ExtendedEndpoint
	}{{"from", link.From}, {"to", link.To}} {
		if side.ep == nil {
			errs = append(errs, ValidationError{Field: side.field, Message: "Endpoint is required"})
			continue
		}
		if side.ep.Box == "" {
			errs = append(errs, ValidationError{Field: side.field + ".box", Message: "Box is required"})
		}
		if side.ep.Pin == "" {
			errs = append(errs, ValidationError{Field: side.field + ".pin", Message: "Pin is required"})
		}
		if !side.ep.ConnectionType.Valid() {
			errs = append(errs, ValidationError{
				Field:   side.field + ".connectionType",
				Message: "Connection type must be 'mq' or 'grpc'",
				Value:   side.ep.ConnectionType,
			})
		}
	}
	return result(errs)
}

// ValidateResource decodes a wire resource and validates the entity it holds.
// Kinds the editor does not model only need a name.
func (v *Validator) ValidateResource(data []byte) (models.Entity, *ValidationResult) {
	var res models.Resource
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, invalid(ValidationError{
			Field:   "document",
			Message: fmt.Sprintf("Invalid JSON: %v", err),
		})
	}
	if res.Kind == "" {
		return nil, invalid(ValidationError{Field: "kind", Message: "Kind is required"})
	}

	entity, err := models.DecodeResource(res)
	if err != nil {
		return nil, invalid(ValidationError{Field: "spec", Message: err.Error()})
	}
	return entity, v.ValidateEntity(entity)
}

// ValidateEntity dispatches on the entity variant.
func (v *Validator) ValidateEntity(e models.Entity) *ValidationResult {
	switch t := e.(type) {
	case *models.Box:
		return v.ValidateBox(t)
	case *models.Dictionary:
		return v.ValidateDictionary(t)
	case *models.LinkDefinition:
		var errs []ValidationError
		if t.Name == "" {
			errs = append(errs, ValidationError{Field: "name", Message: "Name is required"})
		}
		for _, l := range t.ExtendedLinks() {
			for _, e := range v.ValidateLink(l).Errors {
				e.Field = fmt.Sprintf("links[%s].%s", l.Name, e.Field)
				errs = append(errs, e)
			}
		}
		return result(errs)
	case *models.GenericResource:
		if t.Name == "" {
			return invalid(ValidationError{Field: "name", Message: "Name is required"})
		}
		return result(nil)
	default:
		return invalid(ValidationError{Field: "kind", Message: fmt.Sprintf("Unsupported entity %T", e)})
	}
}

func (v *Validator) structErrors(s interface{}) []ValidationError {
	err := v.structValidator.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: "document", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   trimNamespace(fe.Namespace()),
			Message: tagMessage(fe),
			Value:   fe.Value(),
		})
	}
	return out
}

// trimNamespace drops the struct name from "Box.spec.pins[0].name".
func trimNamespace(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field is required"
	case "hostname_rfc1123":
		return "Must be a DNS-compatible name"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return fmt.Sprintf("Entries must have unique %s", strings.ToLower(fe.Param()))
	case "min", "max":
		return fmt.Sprintf("Must satisfy %s=%s", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}

func invalid(errs ...ValidationError) *ValidationResult {
	return &ValidationResult{Valid: false, Errors: errs}
}

func result(errs []ValidationError) *ValidationResult {
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
