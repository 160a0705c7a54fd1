package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

var errTrailingData = errors.New("unexpected data after arguments object")

type entry struct {
	def    ToolDefinition
	schema *validator.Schema
}

// Registry maps tool names to schema-validated callables. It is built once
// and never mutated, so it is safe for concurrent use.
type Registry struct {
	order   []string
	entries map[string]entry
}

// NewRegistry compiles each definition's schema. Duplicate or empty names
// and schemas that do not compile are rejected.
func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{entries: make(map[string]entry, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("tool definition without a name")
		}
		if _, dup := r.entries[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", d.Name)
		}
		if d.Function == nil {
			return nil, fmt.Errorf("tool %q has no function", d.Name)
		}
		sch, err := compileSchema(d)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %q: %w", d.Name, err)
		}
		r.entries[d.Name] = entry{def: d, schema: sch}
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// MustRegistry is NewRegistry for static tool sets.
func MustRegistry(defs ...ToolDefinition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

func compileSchema(d ToolDefinition) (*validator.Schema, error) {
	if d.InputSchema == nil {
		return nil, nil
	}
	b, err := json.Marshal(d.InputSchema)
	if err != nil {
		return nil, err
	}
	url := "https://go-assistant.invalid/tools/" + d.Name + ".json"
	c := validator.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

// Len returns the number of registered tools; a nil registry has none.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Definitions returns the tools in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	if r == nil {
		return nil
	}
	out := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].def)
	}
	return out
}

// Execute validates args against the named tool's schema and runs it.
// Every failure is an *ExecutionError.
func (r *Registry) Execute(name string, args json.RawMessage) (string, error) {
	var (
		e  entry
		ok bool
	)
	if r != nil {
		e, ok = r.entries[name]
	}
	if !ok {
		return "", &ExecutionError{Tool: name, Kind: ErrUnknownTool}
	}

	// Models occasionally send nothing for argument-less calls.
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", &ExecutionError{Tool: name, Kind: ErrInvalidArguments, Err: err}
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return "", &ExecutionError{Tool: name, Kind: ErrInvalidArguments, Err: err}
	}
	if e.schema != nil {
		if err := e.schema.Validate(doc); err != nil {
			return "", &ExecutionError{Tool: name, Kind: ErrInvalidArguments, Err: err}
		}
	}

	out, err := e.def.Function(args)
	if err != nil {
		return "", &ExecutionError{Tool: name, Kind: ErrToolFailed, Err: err}
	}
	return out, nil
}
