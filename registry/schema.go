package registry

import (
	"encoding/json"
	"fmt"
)

// Field kinds a schema can require.
const (
	KindString = "string"
	KindNumber = "number"
	KindBool   = "bool"
	KindObject = "object"
	KindArray  = "array"
	KindAny    = "any"
)

// FieldSpec describes one payload field.
type FieldSpec struct {
	Kind     string `yaml:"kind"`
	Required bool   `yaml:"required"`
}

// Schema is the structural description of a topic's payload.
type Schema struct {
	Topic  string
	Fields map[string]FieldSpec
}

// Result carries the outcome of a validation. Errors reject the message;
// warnings do not.
type Result struct {
	Errors   []string
	Warnings []string
}

func (v Result) OK() bool { return len(v.Errors) == 0 }

// Validate checks a decoded payload against the schema. Required fields must
// be present with a matching kind; unknown fields only warn, since live
// modules routinely send more than they document.
func (s *Schema) Validate(payload map[string]any) Result {
	var res Result
	for name, spec := range s.Fields {
		val, ok := payload[name]
		if !ok {
			if spec.Required {
				res.Errors = append(res.Errors, fmt.Sprintf("missing required field %q", name))
			}
			continue
		}
		if !kindMatches(spec.Kind, val) {
			res.Errors = append(res.Errors, fmt.Sprintf("field %q: expected %s, got %T", name, spec.Kind, val))
		}
	}
	for name := range payload {
		if _, known := s.Fields[name]; !known {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unknown field %q", name))
		}
	}
	return res
}

func kindMatches(kind string, val any) bool {
	if val == nil {
		// JSON null satisfies any kind; the live brokers emit nulls for
		// unset optional readings.
		return true
	}
	switch kind {
	case KindString:
		_, ok := val.(string)
		return ok
	case KindNumber:
		switch val.(type) {
		case float64, float32, int, int64, json.Number:
			return true
		}
		return false
	case KindBool:
		_, ok := val.(bool)
		return ok
	case KindObject:
		_, ok := val.(map[string]any)
		return ok
	case KindArray:
		_, ok := val.([]any)
		return ok
	case KindAny, "":
		return true
	}
	return false
}
