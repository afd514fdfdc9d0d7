package scoring

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Canonical normalizes an answer scalar to its canonical string form so that
// values which round-tripped through the document store with a different
// dynamic type still compare equal: numeric strings and numbers map to the
// same representation ("2", 2, 2.0 and "2.0" all canonicalize to "2").
// Both sides of every scoring and aggregation comparison go through this
// function; nothing in the engine compares raw interface values.
func Canonical(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(x)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return s
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// CanonicalSet normalizes a set-valued answer (MULTI) to sorted unique
// canonical strings. Accepts any slice shape: []int from the tracker,
// []interface{} / primitive.A from a decoded document, []string from JSON.
func CanonicalSet(v interface{}) ([]string, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	seen := make(map[string]bool, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		seen[Canonical(rv.Index(i).Interface())] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, true
}

// CanonicalPairs normalizes a MATRIX answer (row -> selected columns) to
// sorted "row:col" strings. Accepts map[int][]int from the tracker as well as
// string-keyed maps from decoded documents.
func CanonicalPairs(v interface{}) ([]string, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	pairs := make(map[string]bool)
	iter := rv.MapRange()
	for iter.Next() {
		row := Canonical(iter.Key().Interface())
		cols, ok := CanonicalSet(iter.Value().Interface())
		if !ok {
			continue
		}
		for _, col := range cols {
			pairs[row+":"+col] = true
		}
	}
	out := make([]string, 0, len(pairs))
	for p := range pairs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, true
}

// CanonicalKey collapses any answer value to a single canonical string:
// matrix selections and sets join their sorted canonical elements with
// commas ({0,2} -> "0,2"), scalars pass through Canonical. Relative-grading
// table lookups and option-distribution buckets both key on this form.
func CanonicalKey(v interface{}) string {
	if pairs, ok := CanonicalPairs(v); ok {
		return strings.Join(pairs, ",")
	}
	if set, ok := CanonicalSet(v); ok {
		return strings.Join(set, ",")
	}
	return Canonical(v)
}

// IsEmpty reports whether an answer value counts as unanswered: nil, an
// empty or whitespace string, or an empty collection.
func IsEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// subsetOf reports whether every element of sub is present in super. Both
// must be sorted, as CanonicalSet returns them.
func subsetOf(sub, super []string) bool {
	j := 0
	for _, s := range sub {
		for j < len(super) && super[j] < s {
			j++
		}
		if j >= len(super) || super[j] != s {
			return false
		}
	}
	return true
}
