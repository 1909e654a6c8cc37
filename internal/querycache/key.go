// ABOUTME: Deterministic cache keys built from a collection name and query parameters.
// ABOUTME: Predicates select keys for scoped invalidation.
package querycache

import (
	"net/url"
	"slices"
	"strings"
)

// Key identifies one query result, e.g. "routines?date=2024-02-14&userId=u1".
// Parameters are sorted so equal queries always produce equal keys.
type Key string

// NewKey builds a key from a collection and its query parameters.
func NewKey(collection string, params map[string]string) Key {
	if len(params) == 0 {
		return Key(collection)
	}
	v := url.Values{}
	for name, value := range params {
		v.Set(name, value)
	}
	return Key(collection + "?" + v.Encode())
}

// Collection returns the part before the query.
func (k Key) Collection() string {
	coll, _, _ := strings.Cut(string(k), "?")
	return coll
}

// Param returns a query parameter value, or "" when absent.
func (k Key) Param(name string) string {
	_, query, ok := strings.Cut(string(k), "?")
	if !ok {
		return ""
	}
	v, err := url.ParseQuery(query)
	if err != nil {
		return ""
	}
	return v.Get(name)
}

func (k Key) String() string { return string(k) }

// Predicate selects keys to invalidate.
type Predicate func(Key) bool

// All matches every key.
func All(Key) bool { return true }

// InCollection matches every key of a collection regardless of parameters.
func InCollection(collection string) Predicate {
	return func(k Key) bool { return k.Collection() == collection }
}

// WithParam matches keys of collection whose parameter name equals one of values.
func WithParam(collection, name string, values ...string) Predicate {
	return func(k Key) bool {
		return k.Collection() == collection && slices.Contains(values, k.Param(name))
	}
}

// And matches keys selected by every predicate.
func And(preds ...Predicate) Predicate {
	return func(k Key) bool {
		for _, p := range preds {
			if !p(k) {
				return false
			}
		}
		return true
	}
}
