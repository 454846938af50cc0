package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with two decimals and comma grouping.
func FormatMoney(symbol string, d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := symbol + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatDate renders a wire date with layout, falling back to the raw value.
func FormatDate(raw, layout string, loc *time.Location) string {
	t, ok := ParseDate(raw, loc)
	if !ok {
		return raw
	}
	return t.Format(layout)
}
