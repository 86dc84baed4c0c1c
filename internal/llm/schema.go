package llm

// BuildPageJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It deliberately accepts numeric fields as number, string, or
// null: models render unavailable fields all three ways, and the
// reconciliation engine owns coercion; the schema only guards structure.
func BuildPageJSONSchema() map[string]any {
	flexNum := map[string]any{"type": []string{"number", "string", "null"}}
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_name":     map[string]any{"type": "string"},
			"item_amount":   flexNum,
			"item_rate":     flexNum,
			"item_quantity": flexNum,
		},
		"required": []string{"item_name"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_no":        map[string]any{"type": []string{"string", "number"}},
			"page_type":      map[string]any{"type": "string"},
			"declared_total": flexNum,
			"bill_items":     map[string]any{"type": "array", "items": item},
		},
		"required": []string{"bill_items"},
	}
}
