package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/fintrack/internal/ledger"
)

func names(cs []ledger.Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

var expenseCats = []ledger.Category{
	{ID: 1, Name: "Transport", Type: ledger.Expense},
	{ID: 2, Name: "Food", Type: ledger.Expense},
	{ID: 3, Name: "Fast food", Type: ledger.Expense},
	{ID: 4, Name: "Rent", Type: ledger.Expense},
}

func TestFuzzyMatchScore(t *testing.T) {
	t.Parallel()

	ok, exact := fuzzyMatchScore("Food", "food")
	require.True(t, ok)
	ok, prefix := fuzzyMatchScore("Foodstuff", "food")
	require.True(t, ok)
	ok, scattered := fuzzyMatchScore("Fast food", "fod")
	require.True(t, ok)

	assert.Greater(t, exact, prefix, "exact match wins")
	assert.Greater(t, prefix, scattered)

	ok, _ = fuzzyMatchScore("Rent", "tr")
	assert.False(t, ok, "order matters")

	_, wordStart := fuzzyMatchScore("Eating out", "o")
	_, inner := fuzzyMatchScore("Food", "o")
	assert.Greater(t, wordStart, inner, "hits at a word start rank higher")
}

func TestFuzzyMatchScoreNonASCII(t *testing.T) {
	t.Parallel()

	ok, score := fuzzyMatchScore("Épargne", "ÉP")
	require.True(t, ok)
	assert.Equal(t, 2+10+3, score, "two runes, prefix, adjacent")

	ok, score = fuzzyMatchScore("Café", "café")
	require.True(t, ok)
	assert.Equal(t, 4+10+3*3+20, score)

	ok, _ = fuzzyMatchScore("Café", "cafe")
	assert.False(t, ok)

	cats := []ledger.Category{{ID: 1, Name: "Épargne"}, {ID: 2, Name: "Loyer"}}
	assert.Equal(t, []string{"Épargne"}, names(rankCategories(cats, "épragne")), "edit distance counts runes")
}

func TestRankCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query keeps order", query: "", want: []string{"Transport", "Food", "Fast food", "Rent"}},
		{name: "exact beats partial", query: "food", want: []string{"Food", "Fast food"}},
		{name: "subsequence", query: "tpt", want: []string{"Transport"}},
		{name: "typo falls back to edit distance", query: "Fopd", want: []string{"Food"}},
		{name: "no match", query: "zzz", want: []string{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, names(rankCategories(expenseCats, tt.query)))
		})
	}
}

func TestPickerNavigation(t *testing.T) {
	t.Parallel()
	p := newCategoryPicker()
	p.input.Focus()
	p.SetCategories(expenseCats)

	sel, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, "Transport", sel.Name)

	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	sel, _ = p.Selected()
	assert.Equal(t, "Fast food", sel.Name)

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("rent")})
	sel, ok = p.Selected()
	require.True(t, ok)
	assert.Equal(t, "Rent", sel.Name, "cursor resets when the list shrinks")

	p.input.SetValue("")
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zzz")})
	_, ok = p.Selected()
	assert.False(t, ok)
}
