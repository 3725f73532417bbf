// Package schema validates generated site content against the fixed JSON Schema of a
// page template.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed templates/*.schema.json
var templateFS embed.FS

// schemaFiles maps template ids to their embedded schema documents
var schemaFiles = map[string]string{
	"digital-marketing/maxreach": "templates/maxreach.schema.json",
}

// ErrUnknownTemplate is returned when no schema is registered for a template id
var ErrUnknownTemplate = errors.New("no schema registered for template")

// Document is a loaded schema, shared read-only by the validator and the LLM providers
// that support schema-constrained output.
type Document struct {
	Name string
	Raw  json.RawMessage
	Tree map[string]interface{}
}

// ErrorDetail is a single schema violation
type ErrorDetail struct {
	InstancePath    string `json:"instancePath"`
	KeywordLocation string `json:"keywordLocation"`
	Message         string `json:"message"`
}

// Result is the outcome of validating one document
type Result struct {
	Valid  bool          `json:"valid"`
	Errors []ErrorDetail `json:"errors,omitempty"`
}

// ValidationError reports content that parsed as JSON but failed the schema
type ValidationError struct {
	Result Result
	Keys   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("content failed schema validation with %d issue(s)", len(e.Result.Errors))
}

// Validator checks documents against one compiled schema. Safe for concurrent use.
type Validator struct {
	doc      *Document
	compiled *jsonschema.Schema
}

// NewValidator loads and compiles the schema registered for templateID
func NewValidator(templateID string) (*Validator, error) {
	file, ok := schemaFiles[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	data, err := templateFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", file, err)
	}

	return NewValidatorFromBytes(titleOf(data, "SiteContent"), data)
}

// NewValidatorFromBytes compiles an arbitrary schema document
func NewValidatorFromBytes(name string, data []byte) (*Validator, error) {
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	resource := "sitecloner://" + name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	return &Validator{
		doc:      &Document{Name: name, Raw: json.RawMessage(data), Tree: tree},
		compiled: compiled,
	}, nil
}

// Document returns the schema used by this validator
func (v *Validator) Document() *Document {
	return v.doc
}

// Validate checks raw JSON. All violations are reported, in a stable order.
func (v *Validator) Validate(raw []byte) Result {
	var instance interface{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return Result{
			Valid: false,
			Errors: []ErrorDetail{{
				InstancePath:    "",
				KeywordLocation: "",
				Message:         "invalid JSON: " + err.Error(),
			}},
		}
	}
	return v.ValidateValue(instance)
}

// ValidateValue checks an already decoded JSON value
func (v *Validator) ValidateValue(instance interface{}) Result {
	err := v.compiled.Validate(instance)
	if err == nil {
		return Result{Valid: true}
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Result{Valid: false, Errors: []ErrorDetail{{Message: err.Error()}}}
	}

	details := flatten(ve, nil)
	sort.Slice(details, func(i, j int) bool {
		if details[i].InstancePath != details[j].InstancePath {
			return details[i].InstancePath < details[j].InstancePath
		}
		if details[i].KeywordLocation != details[j].KeywordLocation {
			return details[i].KeywordLocation < details[j].KeywordLocation
		}
		return details[i].Message < details[j].Message
	})

	return Result{Valid: false, Errors: dedupe(details)}
}

// flatten collects the leaf causes; inner nodes only say "doesn't validate with ...".
func flatten(ve *jsonschema.ValidationError, out []ErrorDetail) []ErrorDetail {
	if len(ve.Causes) == 0 {
		return append(out, ErrorDetail{
			InstancePath:    ve.InstanceLocation,
			KeywordLocation: ve.KeywordLocation,
			Message:         ve.Message,
		})
	}
	for _, cause := range ve.Causes {
		out = flatten(cause, out)
	}
	return out
}

func dedupe(details []ErrorDetail) []ErrorDetail {
	out := make([]ErrorDetail, 0, len(details))
	for _, d := range details {
		if len(out) > 0 && d == out[len(out)-1] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// TopLevelKeys lists the keys of a JSON object, for diagnostics
func TopLevelKeys(raw []byte) []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func titleOf(data []byte, fallback string) string {
	var head struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Title == "" {
		return fallback
	}
	return head.Title
}
