// Package output provides formatters for displaying boost state (tweaks,
// profiles, the activity log, session status, system info) in various
// output formats (pretty, plain, json, yaml, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.Tweaks(reg.List())); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

// Result is one formattable view. Tabular formatters use Columns and Rows;
// structured formatters encode Data; line-oriented ones (jsonl) encode
// Items.
type Result struct {
	// Title heads the pretty output.
	Title string `json:"title" yaml:"title"`

	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`

	// Data is the structured value behind the rows.
	Data any `json:"data" yaml:"data"`

	// Items are the individual records of Data, when it is a list.
	Items []any `json:"-" yaml:"-"`

	// Summary holds footer facts such as counts.
	Summary []string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Warnings contains any warning messages for the view.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Empty is shown instead of an empty table.
	Empty string `json:"-" yaml:"-"`
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// Render formats r with the named formatter into a string.
func Render(name string, r *Result) (string, error) {
	f, err := Get(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}
