// Package normalization maps loosely written names, such as builder names,
// parser extensions and encodings, onto canonical values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Name is the canonical spelling of a user supplied name: trimmed and
// lowercased.
func Name(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Warning describes a normalization that changed a field, or returns ""
// when from and to are equal.
func Warning(field, from, to string) string {
	if from == to {
		return ""
	}
	return fmt.Sprintf("normalized %s from '%s' to '%s'", field, from, to)
}

// Enum resolves names to values of T.
type Enum[T any] struct {
	kind   string
	values map[string]T
	names  []string
}

// NewEnum builds an Enum. kind names the value set in error messages.
func NewEnum[T any](kind string, values map[string]T) *Enum[T] {
	e := &Enum[T]{kind: kind, values: make(map[string]T, len(values))}
	for k, v := range values {
		k = Name(k)
		e.values[k] = v
		e.names = append(e.names, k)
	}
	sort.Strings(e.names)
	return e
}

// Lookup normalizes raw and returns its value.
func (e *Enum[T]) Lookup(raw string) (T, error) {
	if v, ok := e.values[Name(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %v", e.kind, raw, e.names)
}

// Names returns the accepted names in sorted order.
func (e *Enum[T]) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}
