package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateDocument validates a decoded JSON document against a schema given
// as a Go value (map[string]interface{}).
func ValidateDocument(schema, document interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if p, ok := desc.Details()["property"].(string); ok && p != "" {
				field = p
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// StringListsSchema describes an object whose only allowed keys are names,
// each holding an array of non-blank strings.
func StringListsSchema(names []string) map[string]interface{} {
	props := make(map[string]interface{}, len(names))
	for _, n := range names {
		props[n] = map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":      "string",
				"minLength": 1,
				"pattern":   `\S`,
			},
		}
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}
