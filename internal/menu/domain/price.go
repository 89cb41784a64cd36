package domain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// maxPriceMagnitude is the largest decimal exponent of a finite float64.
const maxPriceMagnitude = 308

// NormalizePrice formats numeric price text with exactly two fractional digits,
// rounding half away from zero. Text that is not a number, or whose magnitude
// exceeds the float64 range, is returned unchanged.
func NormalizePrice(raw string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	if d.IsZero() {
		return "0.00"
	}
	// position of the leading digit: 0 for 1..9, 2 for 100, -3 for 0.001
	digits := int64(len(new(big.Int).Abs(d.Coefficient()).String()))
	magnitude := int64(d.Exponent()) + digits - 1
	switch {
	case magnitude > maxPriceMagnitude:
		return raw
	case magnitude < -3:
		// below 0.001, always rounds to zero
		return "0.00"
	}
	return d.StringFixed(2)
}

// NormalizeEntries normalises prices and collapses duplicate ids to their last
// occurrence, keeping the position of the first. The input is not modified.
func NormalizeEntries(entries []MenuEntry) []MenuEntry {
	out := make([]MenuEntry, 0, len(entries))
	index := make(map[int64]int, len(entries))
	for _, e := range entries {
		e.Price = NormalizePrice(e.Price)
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}
