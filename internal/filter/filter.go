// Package filter derives the visible transaction list from the cached set and
// the user's selection. It is pure: the clock is always passed in.
package filter

import (
	"sort"
	"time"

	"github.com/jask/fintrack/internal/ledger"
)

// TypeFilter narrows transactions by type.
type TypeFilter string

const (
	TypeAll     TypeFilter = "all"
	TypeIncome  TypeFilter = "income"
	TypeExpense TypeFilter = "expense"
)

var typeOrder = []TypeFilter{TypeAll, TypeIncome, TypeExpense}

// DateRange narrows transactions by calendar date relative to now.
type DateRange string

const (
	DateAll       DateRange = "all"
	DateToday     DateRange = "today"
	DateLast7     DateRange = "7days"
	DateMonth     DateRange = "month"
	DateLastMonth DateRange = "last_month"
)

var dateOrder = []DateRange{DateAll, DateToday, DateLast7, DateMonth, DateLastMonth}

// Selection is the (type, date range) pair applied to the transaction list.
type Selection struct {
	Type TypeFilter
	Date DateRange
}

// DefaultSelection shows everything.
func DefaultSelection() Selection {
	return Selection{Type: TypeAll, Date: DateAll}
}

// NextType cycles the type axis.
func (s Selection) NextType() Selection {
	s.Type = typeOrder[(indexOf(typeOrder, s.Type)+1)%len(typeOrder)]
	return s
}

// NextDate cycles the date axis.
func (s Selection) NextDate() Selection {
	s.Date = dateOrder[(indexOf(dateOrder, s.Date)+1)%len(dateOrder)]
	return s
}

func indexOf[T comparable](xs []T, v T) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// Label is the human form shown in the filter bar.
func (d DateRange) Label() string {
	switch d {
	case DateToday:
		return "Today"
	case DateLast7:
		return "Last 7 days"
	case DateMonth:
		return "This month"
	case DateLastMonth:
		return "Last month"
	default:
		return "All time"
	}
}

// Label is the human form shown in the filter bar.
func (t TypeFilter) Label() string {
	switch t {
	case TypeIncome:
		return "Income"
	case TypeExpense:
		return "Expense"
	default:
		return "All types"
	}
}

// Apply returns the transactions matching sel, newest first. The input slice
// is never modified. Rows whose date cannot be parsed pass every date range
// and sort after all dated rows.
func Apply(txs []ledger.Transaction, sel Selection, now time.Time) []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if sel.Type != TypeAll && sel.Type != "" && string(tx.Type) != string(sel.Type) {
			continue
		}
		out = append(out, tx)
	}

	loc := now.Location()
	dates := make(map[int]time.Time, len(out))
	kept := out[:0]
	for _, tx := range out {
		d, ok := ledger.ParseDate(tx.Date, loc)
		if ok && !inRange(d, sel.Date, now) {
			continue
		}
		if ok {
			dates[len(kept)] = d
		}
		kept = append(kept, tx)
	}

	idx := make([]int, len(kept))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, aok := dates[idx[i]]
		b, bok := dates[idx[j]]
		switch {
		case aok && bok:
			return a.After(b)
		default:
			return aok && !bok
		}
	})

	sorted := make([]ledger.Transaction, len(kept))
	for i, k := range idx {
		sorted[i] = kept[k]
	}
	return sorted
}

func inRange(d time.Time, r DateRange, now time.Time) bool {
	today := ledger.Day(now)
	switch r {
	case DateToday:
		return d.Equal(today)
	case DateLast7:
		return !d.Before(today.AddDate(0, 0, -7))
	case DateMonth:
		return d.Year() == today.Year() && d.Month() == today.Month()
	case DateLastMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		prev := first.AddDate(0, -1, 0)
		return d.Year() == prev.Year() && d.Month() == prev.Month()
	default:
		return true
	}
}
