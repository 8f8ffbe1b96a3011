// Package dataform implements room configuration forms: ordered typed
// fields with change tracking against the last submitted values.
package dataform

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/containerd/errdefs"
)

// FieldType is the kind of value a field holds.
type FieldType string

const (
	TextSingle FieldType = "text-single"
	Boolean    FieldType = "boolean"
	ListSingle FieldType = "list-single"
)

var (
	// ErrUnknownField indicates the form has no field with that name.
	ErrUnknownField = fmt.Errorf("form field: %w", errdefs.ErrNotFound)
	// ErrInvalidValue indicates a value the field type does not accept.
	ErrInvalidValue = fmt.Errorf("form value: %w", errdefs.ErrInvalidArgument)
	// ErrDestroyed indicates the owner destroyed the form.
	ErrDestroyed = fmt.Errorf("form destroyed: %w", errdefs.ErrFailedPrecondition)
)

// Field is one form entry.
type Field struct {
	Var     string
	Label   string
	Type    FieldType
	Value   string
	Options []string
}

// Form is safe for concurrent use. Windows hold references through
// Attach/Detach; only the owner calls Destroy.
type Form struct {
	mu        sync.Mutex
	title     string
	fields    []Field
	submitted map[string]string
	holders   int
	destroyed bool
}

// New creates a form whose initial values count as submitted.
func New(title string, fields []Field) *Form {
	f := &Form{title: title}
	for _, field := range fields {
		field.Options = slices.Clone(field.Options)
		if field.Type == "" {
			field.Type = TextSingle
		}
		if field.Type == Boolean {
			field.Value = normalizeBool(field.Value)
		}
		f.fields = append(f.fields, field)
	}
	f.submitted = f.valuesLocked()
	return f
}

// Title returns the form title.
func (f *Form) Title() string {
	return f.title
}

// Fields returns a copy of the fields in order.
func (f *Form) Fields() []Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Field, len(f.fields))
	for i, field := range f.fields {
		field.Options = slices.Clone(field.Options)
		out[i] = field
	}
	return out
}

// Get returns the current value of a field.
func (f *Form) Get(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.indexLocked(name)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return f.fields[idx].Value, nil
}

// Set changes a field value after validating it against the field type.
func (f *Form) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrDestroyed
	}
	idx := f.indexLocked(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	field := &f.fields[idx]
	switch field.Type {
	case Boolean:
		normalized := normalizeBool(value)
		if normalized == "" {
			return fmt.Errorf("%w: %s expects a boolean, got %q", ErrInvalidValue, name, value)
		}
		value = normalized
	case ListSingle:
		if !slices.Contains(field.Options, value) {
			return fmt.Errorf("%w: %s expects one of %s, got %q", ErrInvalidValue, name, strings.Join(field.Options, ", "), value)
		}
	}
	field.Value = value
	return nil
}

// IsModified reports whether any value differs from the last submission.
func (f *Form) IsModified() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !maps.Equal(f.valuesLocked(), f.submitted)
}

// Submit records the current values as submitted and returns them.
func (f *Form) Submit() (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return nil, ErrDestroyed
	}
	f.submitted = f.valuesLocked()
	return maps.Clone(f.submitted), nil
}

// Reset restores the last submitted values.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.fields {
		f.fields[i].Value = f.submitted[f.fields[i].Var]
	}
}

// Attach records a new holder.
func (f *Form) Attach() {
	f.mu.Lock()
	f.holders++
	f.mu.Unlock()
}

// Detach releases a holder. The form stays valid.
func (f *Form) Detach() {
	f.mu.Lock()
	if f.holders > 0 {
		f.holders--
	}
	f.mu.Unlock()
}

// Holders returns the number of attached holders.
func (f *Form) Holders() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holders
}

// Valid reports whether the owner has not destroyed the form.
func (f *Form) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.destroyed
}

// Destroy invalidates the form. Only the owner calls it.
func (f *Form) Destroy() {
	f.mu.Lock()
	f.destroyed = true
	f.mu.Unlock()
}

func (f *Form) indexLocked(name string) int {
	for i, field := range f.fields {
		if field.Var == name {
			return i
		}
	}
	return -1
}

func (f *Form) valuesLocked() map[string]string {
	values := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		values[field.Var] = field.Value
	}
	return values
}

func normalizeBool(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return "1"
	case "0", "false", "off", "no", "":
		return "0"
	default:
		return ""
	}
}
