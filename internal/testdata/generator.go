// Package testdata generates sample ledgers for the demo backend and for
// randomized tests.
package testdata

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/fintrack/internal/ledger"
)

// StarterCategory is a category a fresh backend is created with.
type StarterCategory struct {
	Name string
	Type ledger.TxType
}

// StarterCategories lists the categories of a fresh backend, income first.
var StarterCategories = []StarterCategory{
	{Name: "Salary", Type: ledger.Income},
	{Name: "Freelance", Type: ledger.Income},
	{Name: "Food", Type: ledger.Expense},
	{Name: "Rent", Type: ledger.Expense},
	{Name: "Transport", Type: ledger.Expense},
	{Name: "Entertainment", Type: ledger.Expense},
}

var descriptions = map[ledger.TxType][]string{
	ledger.Income:  {"Monthly salary", "Client invoice", "Refund", "Bonus", ""},
	ledger.Expense: {"Groceries", "Uber ride", "Movie night", "Coffee", "Electricity bill", ""},
}

// Generator produces random transactions. Not safe for concurrent use.
type Generator struct {
	rng    *rand.Rand
	cats   []ledger.Category
	nextID int64

	// MalformedEvery makes roughly one in N rows carry an unparseable date.
	// Zero disables it.
	MalformedEvery int
}

// New returns a generator drawing categories from cats. The same seed always
// yields the same sequence.
func New(seed int64, cats []ledger.Category) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), cats: cats}
}

// Rand exposes the generator's source for callers that need extra draws in
// the same deterministic sequence.
func (g *Generator) Rand() *rand.Rand { return g.rng }

// Transactions returns n rows dated within days before end, ids starting at 1.
func (g *Generator) Transactions(n int, end time.Time, days int) []ledger.Transaction {
	out := make([]ledger.Transaction, n)
	for i := range out {
		out[i] = g.Transaction(end, days)
	}
	return out
}

// Transaction returns one row dated within days before end.
func (g *Generator) Transaction(end time.Time, days int) ledger.Transaction {
	g.nextID++
	typ := ledger.Expense
	if g.rng.Intn(4) == 0 {
		typ = ledger.Income
	}
	tx := ledger.Transaction{
		ID:     g.nextID,
		Type:   typ,
		Amount: decimal.New(int64(g.rng.Intn(20000)+50), -2).Mul(decimal.NewFromInt(int64(g.rng.Intn(50) + 1))),
		Date:   ledger.Day(end).AddDate(0, 0, -g.rng.Intn(max(days, 1))).Format(ledger.DateLayout),
	}
	if pool := ledger.CategoriesOf(g.cats, typ); len(pool) > 0 {
		c := pool[g.rng.Intn(len(pool))]
		tx.CategoryID, tx.CategoryName = c.ID, c.Name
	}
	ds := descriptions[typ]
	tx.Description = ds[g.rng.Intn(len(ds))]
	if g.MalformedEvery > 0 && g.rng.Intn(g.MalformedEvery) == 0 {
		tx.Date = "n/a"
	}
	return tx
}
