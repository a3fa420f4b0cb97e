package github

import (
	"encoding/json"

	"github.com/go-faster/errors"
)

func intPtr(v int) *int { return &v }

// toJSON marshals a value to a JSON string for use as a result payload.
func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshal response")
	}
	return string(b), nil
}

// toStringSlice converts []interface{} (from tool params) to []string.
// Non-string elements are silently skipped.
func toStringSlice(v []interface{}) []string {
	out := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
