package engine

import (
	"strings"

	"github.com/agext/levenshtein"
)

// tokenMatchFloor is the per-token edit similarity above which two tokens are
// considered the same word with OCR/spelling noise.
const tokenMatchFloor = 0.85

var levParams = levenshtein.NewParams()

// NameSimilarity returns a normalized similarity score in [0,1] between two
// item names. It combines a fuzzy token-overlap coefficient (tolerant to a
// shorter name being contained in a longer one, e.g. "Metnuro" vs
// "Metnuro Tab") with whole-string edit similarity for OCR variance.
func NameSimilarity(a, b string) float64 {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	// Overlap coefficient over fuzzy token matches, normalized by the
	// shorter name.
	short, long := ta, tb
	if len(tb) < len(ta) {
		short, long = tb, ta
	}
	var matched float64
	for _, st := range short {
		best := 0.0
		for _, lt := range long {
			var sim float64
			if st == lt {
				sim = 1
			} else {
				sim = levenshtein.Similarity(st, lt, levParams)
			}
			if sim > best {
				best = sim
			}
		}
		if best >= tokenMatchFloor {
			matched += best
		}
	}
	overlap := matched / float64(len(short))

	whole := levenshtein.Similarity(
		strings.Join(ta, " "),
		strings.Join(tb, " "),
		levParams,
	)
	if whole > overlap {
		return whole
	}
	return overlap
}
