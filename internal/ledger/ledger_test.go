package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("IST", 5*3600+1800)

	got, ok := ParseDate("2024-03-15", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), got)

	got, ok = ParseDate("2024-03-14T22:00:00Z", loc)
	require.True(t, ok)
	assert.Equal(t, 15, got.Day(), "RFC3339 is shifted into loc before truncation")

	_, ok = ParseDate("15/03/2024", loc)
	assert.False(t, ok)
	_, ok = ParseDate("", loc)
	assert.False(t, ok)
}

func TestTransactionDecodesBackendJSON(t *testing.T) {
	t.Parallel()
	raw := `{"id":7,"amount":1250.5,"date":"2024-03-15","description":"rent","type":"expense","category_name":"Rent","category_id":4}`
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &tx))
	assert.Equal(t, int64(7), tx.ID)
	assert.Equal(t, Expense, tx.Type)
	assert.True(t, decimal.RequireFromString("1250.5").Equal(tx.Amount))
	assert.Equal(t, "Rent", tx.CategoryName)
}

func TestPeriodCycle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Weekly, Monthly.Next())
	assert.Equal(t, Daily, Weekly.Next())
	assert.Equal(t, Monthly, Daily.Next())
	assert.Equal(t, DefaultPeriod, Period("yearly").Next())

	p, err := ParsePeriod("weekly")
	require.NoError(t, err)
	assert.Equal(t, Weekly, p)
	_, err = ParsePeriod("hourly")
	require.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"0":         "₹0.00",
		"12.5":      "₹12.50",
		"1234":      "₹1,234.00",
		"1234567.8": "₹1,234,567.80",
		"-950":      "-₹950.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney("₹", decimal.RequireFromString(in)), in)
	}
}

func TestFormatDate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "15/Mar/24", FormatDate("2024-03-15", "02/Jan/06", time.UTC))
	assert.Equal(t, "not-a-date", FormatDate("not-a-date", "02/Jan/06", time.UTC))
}

func TestCategoriesOf(t *testing.T) {
	t.Parallel()
	cats := []Category{{ID: 1, Name: "Salary", Type: Income}, {ID: 2, Name: "Food", Type: Expense}, {ID: 3, Name: "Freelance", Type: Income}}
	got := CategoriesOf(cats, Income)
	require.Len(t, got, 2)
	assert.Equal(t, "Salary", got[0].Name)
	assert.Equal(t, "Freelance", got[1].Name)
	assert.Empty(t, CategoriesOf(nil, Expense))
}
