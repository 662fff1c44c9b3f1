package eventlist

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed event_list.schema.json
var schemaSource string

const schemaURL = "event_list.schema.json"

// ErrSchema is wrapped by every validation failure returned by Validator.
var ErrSchema = errors.New("event list does not match its schema")

// Validator checks event lists against the published event-list schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks the JSON form of events.
func (v *Validator) Validate(events []Event) error {
	if events == nil {
		events = []Event{}
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return v.ValidateJSON(raw)
}

// ValidateJSON checks an already encoded JSON event list.
func (v *Validator) ValidateJSON(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := v.schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}
