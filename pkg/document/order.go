package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Type classes, lowest first. Missing and null values sort before everything,
// as they do in the document store.
const (
	classNull = iota
	classNumber
	classString
	classObject
	classArray
	classBool
	classTime
)

// Compare orders two document values: -1 when a < b, 0 when equal, 1 when a > b.
// Values of different kinds are ordered by kind. Strings that both parse as
// RFC 3339 timestamps are compared as instants.
func Compare(a, b interface{}) int {
	ca, cb := class(a), class(b)
	if ca != cb {
		return cmpInt(ca, cb)
	}

	switch ca {
	case classNull:
		return 0
	case classNumber:
		return cmpFloat(toFloat(a), toFloat(b))
	case classString:
		sa, sb := a.(string), b.(string)
		if ta, err := time.Parse(time.RFC3339Nano, sa); err == nil {
			if tb, err := time.Parse(time.RFC3339Nano, sb); err == nil {
				return cmpTime(ta, tb)
			}
		}
		return strings.Compare(sa, sb)
	case classBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case classTime:
		return cmpTime(a.(time.Time), b.(time.Time))
	case classArray:
		xa, xb := a.([]interface{}), b.([]interface{})
		for i := 0; i < len(xa) && i < len(xb); i++ {
			if c := Compare(xa[i], xb[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(xa), len(xb))
	default:
		// Objects have no meaningful order for sorting purposes; compare their
		// canonical encodings so the result is at least deterministic.
		ra, _ := json.Marshal(a)
		rb, _ := json.Marshal(b)
		return strings.Compare(string(ra), string(rb))
	}
}

// SortStable sorts items by the value at path in each item's document form.
// Ties keep their input order. desc reverses the comparison.
func SortStable[T any](items []T, path string, desc bool, toDoc func(T) (map[string]interface{}, error)) error {
	if path == "" || len(items) < 2 {
		return nil
	}

	keys := make([]interface{}, len(items))
	for i, it := range items {
		doc, err := toDoc(it)
		if err != nil {
			return fmt.Errorf("failed to read sort key %q: %w", path, err)
		}
		keys[i], _ = Lookup(doc, path)
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		c := Compare(keys[idx[x]], keys[idx[y]])
		if desc {
			return c > 0
		}
		return c < 0
	})

	sorted := make([]T, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
	return nil
}

func class(v interface{}) int {
	switch v.(type) {
	case nil:
		return classNull
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return classNumber
	case string:
		return classString
	case map[string]interface{}:
		return classObject
	case []interface{}:
		return classArray
	case bool:
		return classBool
	case time.Time:
		return classTime
	default:
		return classObject
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
