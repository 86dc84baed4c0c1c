package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"billextract/internal/engine"
)

// ExtractJSONPayload recovers the JSON object from a chat response that may
// be wrapped in markdown fences or surrounded by prose.
func ExtractJSONPayload(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = content[len("```json"):]
	} else if strings.HasPrefix(content, "```") {
		content = content[len("```"):]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// pagePayload mirrors the wire shape the model is asked for; loose types, the
// engine owns coercion.
type pagePayload struct {
	PageNo        any                       `json:"page_no"`
	PageType      string                    `json:"page_type"`
	DeclaredTotal any                       `json:"declared_total"`
	BillItems     []engine.RawItemCandidate `json:"bill_items"`
}

// DecodePage turns a model response for one page into an engine.RawPage.
// fallbackPageNo is used when the payload omits or garbles page_no. The
// payload is schema-validated after fence recovery; a missing bill_items key
// decodes to an empty list rather than failing.
func DecodePage(content, fallbackPageNo string, logger *slog.Logger) (engine.RawPage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw := []byte(ExtractJSONPayload(content))

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return engine.RawPage{}, fmt.Errorf("decode page payload: %w", err)
	}
	if _, ok := m["bill_items"]; !ok {
		logger.Warn("llm.page.missing_bill_items", "page_no", fallbackPageNo)
		m["bill_items"] = []any{}
		raw, _ = json.Marshal(m)
	}

	if err := ValidateJSONAgainstSchema(BuildPageJSONSchema(), raw); err != nil {
		return engine.RawPage{}, err
	}

	var p pagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return engine.RawPage{}, fmt.Errorf("decode page payload: %w", err)
	}

	pageNo := fallbackPageNo
	switch t := p.PageNo.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			pageNo = s
		}
	case float64:
		pageNo = fmt.Sprintf("%.0f", t)
	}

	return engine.RawPage{
		PageNo:        pageNo,
		PageType:      p.PageType,
		DeclaredTotal: p.DeclaredTotal,
		Items:         p.BillItems,
	}, nil
}
