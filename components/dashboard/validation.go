package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema names understood by JSONSchemaValidator.
const (
	SchemaAlertDraft = "alert_draft"
	SchemaLogEntry   = "log_entry"
)

// ErrInvalidPayload wraps every schema violation.
var ErrInvalidPayload = errors.New("dashboard: invalid payload")

var builtinSchemas = map[string]string{
	SchemaAlertDraft: `{
	"type": "object",
	"required": ["type"],
	"properties": {
		"type": {"enum": ["Error", "Warning", "Info"]},
		"message": {"type": "string", "maxLength": 280},
		"messageEn": {"type": "string", "maxLength": 280},
		"branch": {"type": "string"}
	}
}`,
	SchemaLogEntry: `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message": {"type": "string", "maxLength": 2000}
	}
}`,
}

// PayloadValidator validates request payloads against a named schema.
type PayloadValidator interface {
	Validate(schema string, payload any) error
}

// JSONSchemaValidator compiles the built-in schemas lazily and caches them.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks payload, which may be a struct, a map or raw JSON bytes.
func (v *JSONSchemaValidator) Validate(name string, payload any) error {
	schema, err := v.schemaFor(name)
	if err != nil {
		return err
	}
	doc, err := normalizePayload(payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, name, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, name, err)
	}
	return nil
}

func normalizePayload(payload any) (any, error) {
	var data []byte
	switch p := payload.(type) {
	case nil:
		return map[string]any{}, nil
	case []byte:
		data = p
	case json.RawMessage:
		data = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		data = b
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (v *JSONSchemaValidator) schemaFor(name string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	source, ok := builtinSchemas[name]
	if !ok {
		return nil, fmt.Errorf("dashboard: unknown schema %s", name)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}
