// Package normalization maps loosely written configuration strings onto typed enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string
}

// NewNormalizer creates a normalizer from raw spelling -> value pairs.
// Keys are case-folded and trimmed; several spellings may map to one value.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values)), defaultValue: defaultValue}
	for k, v := range values {
		key := clean(k)
		if _, dup := n.values[key]; !dup {
			n.keys = append(n.keys, key)
		}
		n.values[key] = v
	}
	sort.Strings(n.keys)
	return n
}

// Normalize returns the value for raw, or the default when raw is unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[clean(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// Parse returns the value for raw, or an error listing the accepted spellings.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// Known reports whether raw is one of the accepted spellings.
func (n *Normalizer[T]) Known(raw string) bool {
	_, ok := n.values[clean(raw)]
	return ok
}

// Keys returns the accepted spellings in sorted order.
func (n *Normalizer[T]) Keys() []string {
	return append([]string(nil), n.keys...)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
