package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is an opaque JSON object owned by the backend. Its shape is never validated client-side.
type Record map[string]any

// ID returns the record's "id" field as a string, or "" when absent.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// CostItem is one line of a product's cost breakdown.
type CostItem struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
}

// ParseCostItems decodes a cost breakdown that may arrive as a decoded JSON array or as a JSON string.
//
// Any other value, or malformed JSON, yields an empty slice.
func ParseCostItems(value any) []CostItem {
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case []any, []map[string]any, []CostItem:
		b, err := json.Marshal(v)
		if err != nil {
			return []CostItem{}
		}
		raw = b
	default:
		return []CostItem{}
	}

	var items []CostItem
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []CostItem{}
	}
	return items
}
