// Package schemas validates structured reasoning-service output against the
// JSON schemas embedded next to this file.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// ResponseRating names the schema a single response rating must satisfy.
const ResponseRating = "response_rating"

// Violation is one failed constraint, addressed by its JSON field path.
type Violation struct {
	Field   string
	Message string
}

// ValidationError lists every constraint a document failed.
type ValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("%s: %s", e.Schema, strings.Join(parts, "; "))
}

// LoadError reports a schema that is missing or does not compile.
type LoadError struct {
	Schema string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load schema %s: %v", e.Schema, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Validator checks documents against one compiled schema.
type Validator struct {
	name   string
	raw    string
	schema *gojsonschema.Schema
}

var (
	compiled   = make(map[string]*Validator)
	compiledMu sync.Mutex
)

// Get returns the compiled validator for an embedded schema. Schemas are
// compiled once per process.
func Get(name string) (*Validator, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()
	if v, ok := compiled[name]; ok {
		return v, nil
	}

	data, err := schemaFiles.ReadFile(name + ".schema.json")
	if err != nil {
		return nil, &LoadError{Schema: name, Cause: err}
	}
	v, err := Compile(name, string(data))
	if err != nil {
		return nil, err
	}
	compiled[name] = v
	return v, nil
}

// Compile builds a validator from schema text.
func Compile(name, raw string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, &LoadError{Schema: name, Cause: err}
	}
	return &Validator{name: name, raw: raw, schema: schema}, nil
}

// Raw returns the schema text, for embedding in prompts.
func (v *Validator) Raw() string { return v.raw }

// Validate checks a JSON document. Malformed JSON is reported as a single
// root violation.
func (v *Validator) Validate(document string) error {
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return &ValidationError{Schema: v.name, Violations: []Violation{{Field: "(root)", Message: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: v.name, Violations: make([]Violation, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Violations = append(verr.Violations, Violation{Field: field, Message: desc.Description()})
	}
	return verr
}
