// Package validation checks inbound request payloads against JSON Schemas
// before any handler logic runs.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "lifesure/internal/common/errors"
)

// Validator holds compiled schemas keyed by payload name.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// New compiles every registered schema. A schema that fails to compile is a
// programming error and surfaces at startup, not per request.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(payloadSchemas))}
	for name, raw := range payloadSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// Validate checks payload against the named schema and returns a
// VALIDATION_FAILED error listing every violation.
func (v *Validator) Validate(name string, payload map[string]interface{}) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("no schema registered for %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return stderrors.NewValidationFailedError(err.Error(), nil)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, len(result.Errors()))
	fields := make(map[string]interface{}, len(result.Errors()))
	for i, desc := range result.Errors() {
		details[i] = desc.String()
		fields[desc.Field()] = desc.Description()
	}
	return stderrors.NewValidationFailedError(strings.Join(details, "; "), fields)
}
