package protocol

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var schemaFiles = map[string]string{
	TypeGem:   "schemas/gem.schema.json",
	TypeWine:  "schemas/wine.schema.json",
	TypeError: "schemas/error.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

// SchemaError reports a record that does not match its schema.
type SchemaError struct {
	Type string
	Err  error
}

func (e *SchemaError) Error() string { return fmt.Sprintf("%s record: %v", e.Type, e.Err) }
func (e *SchemaError) Unwrap() error { return e.Err }

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		out := make(map[string]*jsonschema.Schema, len(schemaFiles))
		for typ, p := range schemaFiles {
			b, err := schemaFS.ReadFile(p)
			if err != nil {
				schemasErr = err
				return
			}
			s, err := jsonschema.CompileString(p, string(b))
			if err != nil {
				schemasErr = fmt.Errorf("compile %s: %w", p, err)
				return
			}
			out[typ] = s
		}
		schemas = out
	})
	return schemas, schemasErr
}

// Validate checks an encoded record against the schema for its type.
func Validate(line []byte) error {
	base, err := DecodeBase(line)
	if err != nil {
		return &SchemaError{Type: "?", Err: err}
	}
	all, err := compileSchemas()
	if err != nil {
		return err
	}
	s, ok := all[base.Type]
	if !ok {
		return &SchemaError{Type: base.Type, Err: fmt.Errorf("unknown record type")}
	}
	var v any
	if err := json.Unmarshal(line, &v); err != nil {
		return &SchemaError{Type: base.Type, Err: err}
	}
	if err := s.Validate(v); err != nil {
		return &SchemaError{Type: base.Type, Err: err}
	}
	return nil
}
