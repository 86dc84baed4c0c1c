package constants

import "strings"

// PageType is the canonical classification for one bill page.
type PageType string

// Stable values (these exact strings appear on the wire).
const (
	PageTypeBillDetail PageType = "Bill Detail" // page carrying detailed line items
	PageTypeFinalBill  PageType = "Final Bill"  // page carrying final totals/summary
	PageTypePharmacy   PageType = "Pharmacy"    // pharmacy bill page
)

// NormalizePageType maps whatever label the extractor produced onto one of the
// canonical page types. Unknown labels fall back to "Bill Detail".
func NormalizePageType(s string) PageType {
	switch l := strings.ToLower(strings.TrimSpace(s)); {
	case strings.Contains(l, "pharmacy"):
		return PageTypePharmacy
	case strings.Contains(l, "final"):
		return PageTypeFinalBill
	default:
		return PageTypeBillDetail
	}
}
