package output

import (
	"encoding/json"
	"fmt"
	"sort"
)

// leadingColumns are shown first, in this order, when present.
var leadingColumns = []string{"id", "identity", "action_name", "occurred_at", "events"}

// Tabulate flattens a decoded API result into a header and rows. A list of
// objects becomes one row per object with the union of their keys as
// columns; a single object becomes one row; anything else is one "value"
// column. Nested values are rendered as compact JSON.
func Tabulate(data any) ([]string, [][]string) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case []any:
		objects := make([]map[string]any, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return scalarRows(v)
			}
			objects = append(objects, obj)
		}
		return objectRows(objects)
	case map[string]any:
		return objectRows([]map[string]any{v})
	default:
		return []string{"value"}, [][]string{{cell(v)}}
	}
}

func objectRows(objects []map[string]any) ([]string, [][]string) {
	seen := map[string]bool{}
	var rest []string
	for _, obj := range objects {
		for k := range obj {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}

	var headers []string
	for _, k := range leadingColumns {
		if seen[k] {
			headers = append(headers, k)
			delete(seen, k)
		}
	}
	var tail []string
	for _, k := range rest {
		if seen[k] {
			tail = append(tail, k)
		}
	}
	sort.Strings(tail)
	headers = append(headers, tail...)

	rows := make([][]string, 0, len(objects))
	for _, obj := range objects {
		row := make([]string, len(headers))
		for i, h := range headers {
			if val, ok := obj[h]; ok {
				row[i] = cell(val)
			}
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func scalarRows(items []any) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{cell(item)})
	}
	return []string{"value"}, rows
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool, float64, int, int64:
		return fmt.Sprint(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
