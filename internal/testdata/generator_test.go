package testdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/fintrack/internal/ledger"
)

var (
	end  = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	cats = []ledger.Category{
		{ID: 1, Name: "Salary", Type: ledger.Income},
		{ID: 2, Name: "Food", Type: ledger.Expense},
	}
)

func TestGeneratorIsDeterministic(t *testing.T) {
	t.Parallel()
	a := New(7, cats).Transactions(25, end, 30)
	b := New(7, cats).Transactions(25, end, 30)
	assert.Equal(t, a, b)
}

func TestGeneratedRowsAreWellFormed(t *testing.T) {
	t.Parallel()
	txs := New(1, cats).Transactions(200, end, 30)
	earliest := ledger.Day(end).AddDate(0, 0, -29)

	for i, tx := range txs {
		assert.Equal(t, int64(i+1), tx.ID)
		require.True(t, tx.Type.Valid())
		assert.True(t, tx.Amount.IsPositive())
		assert.Equal(t, 2, int(-tx.Amount.Exponent()), "amounts carry cents")

		d, ok := ledger.ParseDate(tx.Date, time.UTC)
		require.True(t, ok, tx.Date)
		assert.False(t, d.Before(earliest), tx.Date)
		assert.False(t, d.After(ledger.Day(end)), tx.Date)

		want := map[ledger.TxType]int64{ledger.Income: 1, ledger.Expense: 2}[tx.Type]
		assert.Equal(t, want, tx.CategoryID, "category matches the row type")
	}
}

func TestMalformedDates(t *testing.T) {
	t.Parallel()
	g := New(3, nil)
	g.MalformedEvery = 2
	bad := 0
	for _, tx := range g.Transactions(100, end, 10) {
		if tx.Date == "n/a" {
			bad++
		}
		assert.Zero(t, tx.CategoryID, "no categories to draw from")
	}
	assert.Positive(t, bad)
}
