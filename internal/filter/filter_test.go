package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/testdata"
)

func tx(id int64, date string, typ ledger.TxType) ledger.Transaction {
	return ledger.Transaction{ID: id, Date: date, Type: typ, Amount: decimal.NewFromInt(id * 10)}
}

func ids(txs []ledger.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

var march10 = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

func TestApplyTypeOnly(t *testing.T) {
	t.Parallel()
	txs := []ledger.Transaction{tx(1, "2024-01-15", ledger.Expense), tx(2, "2024-01-20", ledger.Income)}

	got := Apply(txs, Selection{Type: TypeIncome, Date: DateAll}, march10)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-20", got[0].Date)
}

func TestApplyThisMonth(t *testing.T) {
	t.Parallel()
	txs := []ledger.Transaction{tx(1, "2024-03-05", ledger.Expense), tx(2, "2024-02-28", ledger.Expense)}

	got := Apply(txs, Selection{Type: TypeAll, Date: DateMonth}, march10)
	assert.Equal(t, []int64{1}, ids(got))
}

func TestApplyLastMonth(t *testing.T) {
	t.Parallel()
	txs := []ledger.Transaction{
		tx(1, "2024-03-01", ledger.Expense),
		tx(2, "2024-02-29", ledger.Income),
		tx(3, "2024-02-01", ledger.Expense),
		tx(4, "2024-01-31", ledger.Expense),
		tx(5, "2023-02-14", ledger.Expense),
	}

	got := Apply(txs, Selection{Type: TypeAll, Date: DateLastMonth}, march10)
	assert.Equal(t, []int64{2, 3}, ids(got))
}

func TestApplyLastMonthInJanuaryRollsBackAYear(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	txs := []ledger.Transaction{tx(1, "2023-12-31", ledger.Expense), tx(2, "2024-12-05", ledger.Expense), tx(3, "2024-01-02", ledger.Expense)}

	got := Apply(txs, Selection{Type: TypeAll, Date: DateLastMonth}, now)
	assert.Equal(t, []int64{1}, ids(got))
}

func TestApplyTodayAndLast7(t *testing.T) {
	t.Parallel()
	txs := []ledger.Transaction{
		tx(1, "2024-03-10", ledger.Expense),
		tx(2, "2024-03-03", ledger.Expense),
		tx(3, "2024-03-02", ledger.Expense),
		tx(4, "2024-03-12", ledger.Income),
	}

	today := Apply(txs, Selection{Type: TypeAll, Date: DateToday}, march10)
	assert.Equal(t, []int64{1}, ids(today))

	week := Apply(txs, Selection{Type: TypeAll, Date: DateLast7}, march10)
	assert.Equal(t, []int64{4, 1, 2}, ids(week), "7 days back is inclusive and future dates are kept")
}

func TestApplyUsesNowLocation(t *testing.T) {
	t.Parallel()
	// 2024-03-09 20:00 UTC is already the 10th in Kolkata.
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC).In(ist)
	txs := []ledger.Transaction{tx(1, "2024-03-10", ledger.Expense), tx(2, "2024-03-09", ledger.Expense)}

	got := Apply(txs, Selection{Type: TypeAll, Date: DateToday}, now)
	assert.Equal(t, []int64{1}, ids(got))
}

func TestApplySortsNewestFirstStable(t *testing.T) {
	t.Parallel()
	txs := []ledger.Transaction{
		tx(1, "2024-01-01", ledger.Expense),
		tx(2, "2024-02-01", ledger.Expense),
		tx(3, "2024-01-01", ledger.Income),
		tx(4, "2024-03-01", ledger.Expense),
	}

	got := Apply(txs, DefaultSelection(), march10)
	assert.Equal(t, []int64{4, 2, 1, 3}, ids(got))
}

func TestApplyMalformedDates(t *testing.T) {
	t.Parallel()
	txs := []ledger.Transaction{
		tx(1, "garbage", ledger.Expense),
		tx(2, "2024-03-05", ledger.Expense),
		tx(3, "", ledger.Income),
	}

	for _, r := range dateOrder {
		got := Apply(txs, Selection{Type: TypeAll, Date: r}, march10)
		assert.Contains(t, ids(got), int64(1), r)
		assert.Contains(t, ids(got), int64(3), r)
	}
	got := Apply(txs, DefaultSelection(), march10)
	assert.Equal(t, []int64{2, 1, 3}, ids(got), "undated rows sort last in original order")
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	txs := []ledger.Transaction{tx(1, "2024-01-01", ledger.Expense), tx(2, "2024-03-01", ledger.Income)}
	before := append([]ledger.Transaction(nil), txs...)

	_ = Apply(txs, Selection{Type: TypeIncome, Date: DateMonth}, march10)
	assert.Equal(t, before, txs)
}

func TestApplyEmpty(t *testing.T) {
	t.Parallel()
	got := Apply(nil, Selection{Type: TypeExpense, Date: DateToday}, march10)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectionCycling(t *testing.T) {
	t.Parallel()
	s := DefaultSelection()
	assert.Equal(t, TypeIncome, s.NextType().Type)
	assert.Equal(t, TypeAll, s.NextType().NextType().NextType().Type)
	assert.Equal(t, DateToday, s.NextDate().Date)
	assert.Equal(t, DateAll, s.NextDate().NextDate().NextDate().NextDate().NextDate().Date)
	assert.Equal(t, DateAll, s.Date, "cycling returns a copy")
}

// Randomized check of the subset, predicate, idempotence and sort laws.
func TestApplyProperties(t *testing.T) {
	t.Parallel()
	gen := testdata.New(42, nil)
	gen.MalformedEvery = 20
	rng := gen.Rand()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 200; round++ {
		txs := gen.Transactions(rng.Intn(30), base.AddDate(0, 0, 120), 120)
		sel := Selection{Type: typeOrder[rng.Intn(len(typeOrder))], Date: dateOrder[rng.Intn(len(dateOrder))]}
		now := base.AddDate(0, 0, rng.Intn(120)).Add(time.Duration(rng.Intn(24)) * time.Hour)
		name := fmt.Sprintf("round %d sel %+v now %s", round, sel, now.Format(time.DateOnly))

		got := Apply(txs, sel, now)

		byID := map[int64]ledger.Transaction{}
		for _, x := range txs {
			byID[x.ID] = x
		}
		for _, g := range got {
			orig, ok := byID[g.ID]
			require.True(t, ok, name)
			require.Equal(t, orig, g, name)
			if sel.Type != TypeAll {
				require.Equal(t, string(sel.Type), string(g.Type), name)
			}
			if d, ok := ledger.ParseDate(g.Date, now.Location()); ok {
				require.True(t, inRange(d, sel.Date, now), name)
			}
		}
		for i := 1; i < len(got); i++ {
			a, aok := ledger.ParseDate(got[i-1].Date, now.Location())
			b, bok := ledger.ParseDate(got[i].Date, now.Location())
			if aok && bok {
				require.False(t, a.Before(b), name)
			}
			if !aok {
				require.False(t, bok, "undated rows only trail: %s", name)
			}
		}
		require.Equal(t, got, Apply(got, sel, now), name)
	}
}
