package tools

import (
	"fmt"
	"strings"
)

// FieldViolation describes a single schema violation.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports arguments that failed schema validation.
// It carries field-level violations for the caller.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}

// ValidateParams checks params against the declared InputSchema:
//   - required fields must be present (nil and empty-string count as missing)
//   - provided values must match the declared JSON type
//   - integers must fall within [Minimum, Maximum] when declared
//   - arrays must have at least MinItems elements when declared
//
// Params not declared in the schema pass through unchecked (lenient).
// On success the params map is returned as-is for handler use.
func ValidateParams(schema InputSchema, params map[string]any) (map[string]any, error) {
	if params == nil {
		params = make(map[string]any)
	}

	var violations []FieldViolation

	for _, key := range schema.Required {
		val, exists := params[key]
		if !exists || val == nil {
			violations = append(violations, FieldViolation{Field: key, Reason: "required parameter missing"})
			continue
		}
		if s, ok := val.(string); ok && s == "" {
			violations = append(violations, FieldViolation{Field: key, Reason: "required parameter empty"})
		}
	}

	for key, val := range params {
		prop, declared := schema.Properties[key]
		if !declared || val == nil {
			continue
		}
		if v := checkValue(key, val, prop); v != nil {
			violations = append(violations, *v)
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return params, nil
}

// checkValue verifies a value against its declared property constraints.
func checkValue(key string, val any, prop Property) *FieldViolation {
	switch prop.Type {
	case "string":
		if _, ok := val.(string); !ok {
			return &FieldViolation{Field: key, Reason: fmt.Sprintf("expected string, got %T", val)}
		}
	case "number", "integer":
		// JSON numbers arrive as float64
		n, ok := val.(float64)
		if !ok {
			return &FieldViolation{Field: key, Reason: fmt.Sprintf("expected number, got %T", val)}
		}
		if prop.Type == "integer" && n != float64(int(n)) {
			return &FieldViolation{Field: key, Reason: "expected integer"}
		}
		if prop.Minimum != nil && n < float64(*prop.Minimum) {
			return &FieldViolation{Field: key, Reason: fmt.Sprintf("must be >= %d", *prop.Minimum)}
		}
		if prop.Maximum != nil && n > float64(*prop.Maximum) {
			return &FieldViolation{Field: key, Reason: fmt.Sprintf("must be <= %d", *prop.Maximum)}
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return &FieldViolation{Field: key, Reason: fmt.Sprintf("expected boolean, got %T", val)}
		}
	case "array":
		arr, ok := val.([]interface{})
		if !ok {
			return &FieldViolation{Field: key, Reason: fmt.Sprintf("expected array, got %T", val)}
		}
		if prop.MinItems != nil && len(arr) < *prop.MinItems {
			return &FieldViolation{Field: key, Reason: fmt.Sprintf("must have at least %d item(s)", *prop.MinItems)}
		}
		if prop.Items != nil {
			for i, item := range arr {
				if item == nil {
					continue
				}
				if v := checkValue(fmt.Sprintf("%s[%d]", key, i), item, *prop.Items); v != nil {
					return v
				}
			}
		}
	case "object":
		if _, ok := val.(map[string]interface{}); !ok {
			return &FieldViolation{Field: key, Reason: fmt.Sprintf("expected object, got %T", val)}
		}
	// "" or unknown types: skip check (lenient)
	}
	return nil
}
