package pivot

import (
	"errors"
	"fmt"
	"sort"
)

// Set is an unordered set of column names. Sets normalize to sorted order.
type Set map[string]struct{}

// NewSet builds a Set from names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// errNotNames is wrapped with ErrInvalidType by callers that know which
// argument was malformed.
var errNotNames = errors.New("expected a column name, a list of names, or a set of names")

// Normalize converts a loosely typed column reference into an ordered list of
// unique names. It accepts a single name (string), a list ([]string or []any
// holding strings) or a set (Set, map[string]struct{} or map[string]bool).
// Lists keep first-occurrence order; sets are sorted.
//
// nil, an empty string, and empty lists or sets yield nil, meaning "use the
// default".
func Normalize(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return nil, nil
		}
		return []string{x}, nil
	case []string:
		return unique(x), nil
	case []any:
		names := make([]string, 0, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", errNotNames, i, item)
			}
			names = append(names, s)
		}
		return unique(names), nil
	case Set:
		return sortedKeys(x), nil
	case map[string]struct{}:
		return sortedKeys(x), nil
	case map[string]bool:
		keys := make(Set, len(x))
		for k, in := range x {
			if in {
				keys[k] = struct{}{}
			}
		}
		return sortedKeys(keys), nil
	}
	return nil, fmt.Errorf("%w: got %T", errNotNames, v)
}

func unique(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func sortedKeys[M ~map[string]struct{}](m M) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
