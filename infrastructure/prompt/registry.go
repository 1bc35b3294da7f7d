// Package prompt provides named prompt templates and their rendering.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// ErrTemplateNotFound is returned when a template name is unknown.
var ErrTemplateNotFound = errors.New("template not found")

// Registry holds named templates. It is preloaded with the built-in
// prompts and callers may override any of them by name.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewRegistry creates a registry loaded with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*template.Template, len(builtins))}
	for name, text := range builtins {
		// Built-ins are compile-time constants; parse failures are
		// programming errors.
		r.templates[name] = template.Must(template.New(name).Parse(text))
	}
	return r
}

// Override replaces (or adds) a template by name.
func (r *Registry) Override(name, text string) error {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return fmt.Errorf("parse template %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = tmpl
	return nil
}

// Render executes the named template with data.
func (r *Registry) Render(name string, data any) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}
	return sb.String(), nil
}

// Has reports whether a template with the given name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[name]
	return ok
}

// FormatConstraints renders constraints as a numbered list for
// inclusion in prompts. Order is insertion order from extraction.
func FormatConstraints(constraints []string) string {
	if len(constraints) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for i, c := range constraints {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}
	return strings.TrimRight(sb.String(), "\n")
}
