package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare json",
			content: `{"bill_items": []}`,
			want:    `{"bill_items": []}`,
		},
		{
			name:    "json fence",
			content: "```json\n{\"bill_items\": []}\n```",
			want:    `{"bill_items": []}`,
		},
		{
			name:    "anonymous fence",
			content: "```\n{\"bill_items\": []}\n```",
			want:    `{"bill_items": []}`,
		},
		{
			name:    "surrounding prose",
			content: "Here is the extraction:\n{\"bill_items\": []}\nLet me know if you need more.",
			want:    `{"bill_items": []}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONPayload(tt.content))
		})
	}
}

func TestDecodePage(t *testing.T) {
	content := "```json\n" + `{
		"page_no": "2",
		"page_type": "Final Bill",
		"declared_total": 572.03,
		"bill_items": [
			{"item_name": "Metnuro", "item_amount": 124.03, "item_rate": "17.72", "item_quantity": 7}
		]
	}` + "\n```"

	page, err := DecodePage(content, "9", nil)
	require.NoError(t, err)
	assert.Equal(t, "2", page.PageNo)
	assert.Equal(t, "Final Bill", page.PageType)
	assert.Equal(t, 572.03, page.DeclaredTotal)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Metnuro", page.Items[0].Name)
}

func TestDecodePageDefaults(t *testing.T) {
	// bill_items missing entirely: empty page, not an error.
	page, err := DecodePage(`{"page_type": "Bill Detail"}`, "3", nil)
	require.NoError(t, err)
	assert.Equal(t, "3", page.PageNo)
	assert.Empty(t, page.Items)

	// numeric page_no is stringified.
	page, err = DecodePage(`{"page_no": 4, "bill_items": []}`, "1", nil)
	require.NoError(t, err)
	assert.Equal(t, "4", page.PageNo)
}

func TestDecodePageToleratesNullFields(t *testing.T) {
	// Models render unavailable optional fields as null; that must not cost
	// the page its valid items.
	content := `{
		"page_no": "1",
		"page_type": "Bill Detail",
		"declared_total": null,
		"bill_items": [
			{"item_name": "Metnuro", "item_amount": 124.03, "item_rate": null, "item_quantity": null},
			{"item_name": "Room Rent", "item_amount": null}
		]
	}`

	page, err := DecodePage(content, "1", nil)
	require.NoError(t, err)
	assert.Nil(t, page.DeclaredTotal)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Metnuro", page.Items[0].Name)
	assert.Nil(t, page.Items[0].Rate)
	assert.Nil(t, page.Items[1].Amount)
}

func TestDecodePageRejectsGarbage(t *testing.T) {
	_, err := DecodePage("the page was blank", "1", nil)
	require.Error(t, err)

	_, err = DecodePage(`{"bill_items": "not a list"}`, "1", nil)
	require.Error(t, err)
}
