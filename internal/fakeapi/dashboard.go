package fakeapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/fintrack/internal/ledger"
)

type bucket struct {
	label           string
	start, end      time.Time
	income, expense decimal.Decimal
}

// Aggregate builds the dashboard for period as of now.
//
//	monthly: 13 calendar months ending with the current one, labelled "Jan 06"
//	weekly:  Monday-aligned weeks covering the last 12 weeks
//	daily:   the last 31 days including today
//
// Totals and the category chart cover the same window as the line chart.
func Aggregate(txs []ledger.Transaction, period ledger.Period, now time.Time) ledger.Dashboard {
	today := ledger.Day(now)
	buckets := buildBuckets(period, today)
	windowStart := buckets[0].start

	var (
		income, expenses = decimal.Zero, decimal.Zero
		catOrder         []string
		catTotals        = map[string]decimal.Decimal{}
	)
	for _, tx := range txs {
		d, ok := ledger.ParseDate(tx.Date, today.Location())
		if !ok || d.Before(windowStart) {
			continue
		}
		for i := range buckets {
			b := &buckets[i]
			if d.Before(b.start) || !d.Before(b.end) {
				continue
			}
			if tx.Type == ledger.Income {
				b.income = b.income.Add(tx.Amount)
			} else {
				b.expense = b.expense.Add(tx.Amount)
			}
			break
		}
		switch tx.Type {
		case ledger.Income:
			income = income.Add(tx.Amount)
		case ledger.Expense:
			expenses = expenses.Add(tx.Amount)
			if _, seen := catTotals[tx.CategoryName]; !seen {
				catOrder = append(catOrder, tx.CategoryName)
			}
			catTotals[tx.CategoryName] = catTotals[tx.CategoryName].Add(tx.Amount)
		}
	}

	out := ledger.Dashboard{
		Summary: ledger.Summary{Income: income, Expenses: expenses, Balance: income.Sub(expenses)},
		LineChart: ledger.LineChart{
			Labels:  make([]string, 0, len(buckets)),
			Income:  make([]decimal.Decimal, 0, len(buckets)),
			Expense: make([]decimal.Decimal, 0, len(buckets)),
		},
		BarChart: ledger.BarChart{Labels: []string{}, Data: []decimal.Decimal{}},
	}
	for _, b := range buckets {
		out.LineChart.Labels = append(out.LineChart.Labels, b.label)
		out.LineChart.Income = append(out.LineChart.Income, b.income)
		out.LineChart.Expense = append(out.LineChart.Expense, b.expense)
	}
	for _, name := range catOrder {
		out.BarChart.Labels = append(out.BarChart.Labels, name)
		out.BarChart.Data = append(out.BarChart.Data, catTotals[name])
	}
	return out
}

func buildBuckets(period ledger.Period, today time.Time) []bucket {
	var out []bucket
	switch period {
	case ledger.Weekly:
		start := today.AddDate(0, 0, -7*12)
		start = start.AddDate(0, 0, -((int(start.Weekday()) + 6) % 7))
		for cur := start; !cur.After(today); cur = cur.AddDate(0, 0, 7) {
			end := cur.AddDate(0, 0, 7)
			out = append(out, bucket{
				label: cur.Format("02/01/06") + " - " + end.AddDate(0, 0, -1).Format("02/01/06"),
				start: cur,
				end:   end,
			})
		}
	case ledger.Daily:
		start := today.AddDate(0, 0, -30)
		for i := 0; i < 31; i++ {
			d := start.AddDate(0, 0, i)
			out = append(out, bucket{label: d.Format("02/01/06"), start: d, end: d.AddDate(0, 0, 1)})
		}
	default:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		for i := 12; i >= 0; i-- {
			m := first.AddDate(0, -i, 0)
			out = append(out, bucket{label: m.Format("Jan 06"), start: m, end: m.AddDate(0, 1, 0)})
		}
	}
	return out
}
