package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/userdesk/userdesk/pkg/user"
)

// UserSchema is the JSON Schema for create and update request bodies.
// An "id" property is tolerated and ignored by the resource. Formats are
// annotations only; the field rules check them after trimming.
const UserSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "lastName", "avatar", "school", "phone", "email", "role"],
  "properties": {
    "id":       {"type": ["string", "number"]},
    "name":     {"type": "string", "minLength": 1},
    "lastName": {"type": "string", "minLength": 1},
    "avatar":   {"type": "string", "minLength": 1, "format": "uri"},
    "school":   {"type": "string", "minLength": 1},
    "phone":    {"type": "string", "minLength": 1},
    "email":    {"type": "string", "minLength": 1},
    "role":     {"type": "string", "enum": ["Admin", "User", "Moderator"]}
  },
  "additionalProperties": false
}`

// BodyValidator validates raw JSON user bodies.
type BodyValidator struct {
	schema      *jsonschema.Schema
	schemaError error
	once        sync.Once
}

// NewBodyValidator creates a BodyValidator. The schema is compiled lazily.
func NewBodyValidator() *BodyValidator {
	return &BodyValidator{}
}

// Validate checks body against UserSchema and then the field rules.
// On success it returns the decoded fields with surrounding whitespace removed.
func (v *BodyValidator) Validate(body []byte) (user.Fields, *Result) {
	result := &Result{Valid: true}

	v.once.Do(func() {
		v.schema, v.schemaError = compileSchema(UserSchema)
	})
	if v.schemaError != nil {
		result.AddError(NewSchemaError("", LocationBody, fmt.Sprintf("schema compilation failed: %v", v.schemaError)))
		return user.Fields{}, result
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		result.AddError(NewInvalidJSONError(err.Error()))
		return user.Fields{}, result
	}

	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			parseSchemaErrors(validationErr, result)
		} else {
			result.AddError(NewSchemaError("", LocationBody, err.Error()))
		}
		return user.Fields{}, result
	}

	var fields user.Fields
	if err := json.Unmarshal(body, &fields); err != nil {
		result.AddError(NewInvalidJSONError(err.Error()))
		return user.Fields{}, result
	}
	result.Merge(validateFields(fields, LocationBody))
	return fields.Trimmed(), result
}

func compileSchema(schema string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("user.json", strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("user.json")
}

// parseSchemaErrors extracts detailed errors from JSON Schema validation
func parseSchemaErrors(err *jsonschema.ValidationError, result *Result) {
	if len(err.Causes) == 0 {
		if strings.HasSuffix(err.KeywordLocation, "/required") {
			if missing := quotedNames(err.Message); len(missing) > 0 {
				for _, field := range missing {
					result.AddError(NewSchemaError(field, LocationBody, fmt.Sprintf("%s is required", Label(field))))
				}
				return
			}
		}
		result.AddError(NewSchemaError(extractFieldFromPath(err.InstanceLocation), LocationBody, err.Message))
		return
	}
	for _, cause := range err.Causes {
		parseSchemaErrors(cause, result)
	}
}

// extractFieldFromPath extracts field name from JSON Pointer path
func extractFieldFromPath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	path = strings.TrimPrefix(path, "/")
	return strings.ReplaceAll(path, "/", ".")
}

// quotedNames returns the single-quoted names in a "missing properties: 'a', 'b'" message.
func quotedNames(msg string) []string {
	parts := strings.Split(msg, "'")
	var names []string
	for i := 1; i < len(parts); i += 2 {
		names = append(names, parts[i])
	}
	return names
}
