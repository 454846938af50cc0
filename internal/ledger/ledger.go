package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxType classifies a transaction or category.
type TxType string

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// Valid reports whether t is one of the known types.
func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Label is the capitalized form used in headings.
func (t TxType) Label() string {
	switch t {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	default:
		return string(t)
	}
}

// Transaction is a backend-owned record. CategoryName is denormalized and read-only.
type Transaction struct {
	ID           int64           `json:"id"`
	Type         TxType          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Date         string          `json:"date"`
	Description  string          `json:"description"`
}

// Category is a user-defined label constrained to one TxType.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type TxType `json:"type"`
}

// NewTransaction is the payload for creating a transaction. ID is assigned by the backend.
type NewTransaction struct {
	Type        TxType          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"category_id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

// CategoriesOf returns the categories of type t, preserving order.
func CategoriesOf(cats []Category, t TxType) []Category {
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// DateLayout is the wire format of transaction dates.
const DateLayout = "2006-01-02"

// ParseDate interprets a transaction date as a calendar day in loc.
// ok is false when s matches neither the wire layout nor RFC3339.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.In(loc)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
