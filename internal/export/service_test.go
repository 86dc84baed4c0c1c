package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleResponse = `{
  "is_success": true,
  "token_usage": {"total_tokens": 1200, "input_tokens": 1000, "output_tokens": 200},
  "data": {
    "pagewise_line_items": [
      {
        "page_no": "1",
        "page_type": "Bill Detail",
        "bill_items": [
          {"item_name": "Room Rent", "item_amount": 1500, "item_rate": 750, "item_quantity": 2},
          {"item_name": "Metnuro Tab", "item_amount": 124.03, "item_rate": 0, "item_quantity": 0}
        ]
      },
      {
        "page_no": "2",
        "page_type": "Pharmacy",
        "bill_items": [
          {"item_name": "Livi 300mg Tab", "item_amount": 448, "item_rate": 448, "item_quantity": 1}
        ]
      }
    ],
    "total_item_count": 3,
    "reconciled_amount": 2072.03
  }
}`

func TestWorkbookFromResponse(t *testing.T) {
	out, err := WorkbookFromResponse([]byte(sampleResponse))
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()

	const sheet = "Line Items"

	header, err := f.GetCellValue(sheet, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Item Name", header)

	name, err := f.GetCellValue(sheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Room Rent", name)

	// Items from later pages continue on the following rows.
	name, err = f.GetCellValue(sheet, "C4")
	require.NoError(t, err)
	assert.Equal(t, "Livi 300mg Tab", name)
	pageNo, err := f.GetCellValue(sheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "2", pageNo)

	amount, err := f.GetCellValue(sheet, "D6")
	require.NoError(t, err)
	assert.Equal(t, "3", amount)
	reconciled, err := f.GetCellValue(sheet, "D7")
	require.NoError(t, err)
	assert.Equal(t, "2072.03", reconciled)
}

func TestWorkbookFromResponseRejectsGarbage(t *testing.T) {
	_, err := WorkbookFromResponse([]byte("not json"))
	require.Error(t, err)
}
