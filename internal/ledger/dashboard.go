package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Period is the aggregation window requested for the dashboard.
type Period string

const (
	Monthly Period = "monthly"
	Weekly  Period = "weekly"
	Daily   Period = "daily"
)

// DefaultPeriod is used until the user picks another.
const DefaultPeriod = Monthly

// Periods lists the selectable periods in display order.
var Periods = []Period{Monthly, Weekly, Daily}

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Next cycles through Periods.
func (p Period) Next() Period {
	for i, q := range Periods {
		if q == p {
			return Periods[(i+1)%len(Periods)]
		}
	}
	return DefaultPeriod
}

// Summary holds the dashboard totals for the selected period.
type Summary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// LineChart is the income/expense series, one point per label.
type LineChart struct {
	Labels  []string          `json:"labels"`
	Income  []decimal.Decimal `json:"income"`
	Expense []decimal.Decimal `json:"expense"`
}

// BarChart is spending per category.
type BarChart struct {
	Labels []string          `json:"labels"`
	Data   []decimal.Decimal `json:"data"`
}

// Dashboard is the aggregated view returned by the backend.
type Dashboard struct {
	Summary   Summary   `json:"summary"`
	LineChart LineChart `json:"line_chart"`
	BarChart  BarChart  `json:"bar_chart"`
}

// Floats converts a series for chart widgets.
func Floats(ds []decimal.Decimal) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.InexactFloat64()
	}
	return out
}
