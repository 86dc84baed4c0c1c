package llm

import "fmt"

// BuildSystemPrompt composes the system message for per-page line-item
// extraction.
func BuildSystemPrompt() string {
	return `You are an expert at extracting structured data from bills and invoices.
Your task is to extract all line items from the bill with the following information:
- item_name: The exact name/description of the item as shown in the bill
- item_amount: The net amount (after discounts) for this line item
- item_rate: The unit rate/price of the item
- item_quantity: The quantity of the item

Also identify the page_type which can be:
- "Bill Detail" - if this page contains detailed line items
- "Final Bill" - if this page contains final totals/summary
- "Pharmacy" - if this is a pharmacy bill

If the page states a document-level total, report it as declared_total.

IMPORTANT:
1. Extract ALL line items - do not miss any
2. Do not include sub-totals or totals as line items
3. Extract exact values as shown in the bill
4. If a field is not available, use 0.0 for numeric fields
5. Return valid JSON only`
}

// BuildUserPrompt packages the per-page instruction and the expected JSON
// shape.
func BuildUserPrompt(pageNo string) string {
	return fmt.Sprintf(`Extract all line items from this page (page %s) of the bill.

Return a JSON object with this exact structure:
{
    "page_no": "%s",
    "page_type": "Bill Detail" | "Final Bill" | "Pharmacy",
    "declared_total": <float, omit if the page states no total>,
    "bill_items": [
        {
            "item_name": "exact item name from bill",
            "item_amount": <float>,
            "item_rate": <float>,
            "item_quantity": <float>
        }
    ]
}

Extract every single line item. Be thorough and accurate.`, pageNo, pageNo)
}
