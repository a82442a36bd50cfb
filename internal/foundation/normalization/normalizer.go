// Package normalization maps loosely written configuration strings onto
// typed enumerations.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer maps case-insensitive, whitespace-trimmed aliases to values of T.
type Normalizer[T comparable] struct {
	aliases  map[string]T
	fallback T
	keys     []string
}

// NewNormalizer builds a normalizer from alias->value pairs. Unknown input
// normalizes to fallback.
func NewNormalizer[T comparable](aliases map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{
		aliases:  make(map[string]T, len(aliases)),
		fallback: fallback,
		keys:     make([]string, 0, len(aliases)),
	}
	for alias, v := range aliases {
		key := clean(alias)
		n.aliases[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Normalize returns the value for raw, or the fallback.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.aliases[clean(raw)]; ok {
		return v
	}
	return n.fallback
}

// NormalizeWithError is Normalize that reports unknown input instead of
// falling back.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.aliases[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %s", raw, strings.Join(n.keys, ", "))
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
