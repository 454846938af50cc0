package tui

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/fintrack/internal/ledger"
)

// categoryPicker filters the categories of one type as the user types.
type categoryPicker struct {
	input   textinput.Model
	all     []ledger.Category
	matches []ledger.Category
	cursor  int
}

func newCategoryPicker() categoryPicker {
	inp := textinput.New()
	inp.Placeholder = "type to filter"
	inp.Prompt = "> "
	inp.CharLimit = 50
	return categoryPicker{input: inp}
}

// SetCategories replaces the candidate list and re-ranks.
func (p *categoryPicker) SetCategories(cats []ledger.Category) {
	p.all = cats
	p.refresh()
}

// Selected returns the highlighted category, if any.
func (p *categoryPicker) Selected() (ledger.Category, bool) {
	if p.cursor < 0 || p.cursor >= len(p.matches) {
		return ledger.Category{}, false
	}
	return p.matches[p.cursor], true
}

func (p *categoryPicker) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
		return nil
	case "down", "ctrl+n":
		if p.cursor < len(p.matches)-1 {
			p.cursor++
		}
		return nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.refresh()
	return cmd
}

func (p *categoryPicker) refresh() {
	p.matches = rankCategories(p.all, p.input.Value())
	if p.cursor >= len(p.matches) {
		p.cursor = 0
	}
}

type scored struct {
	cat   ledger.Category
	score int
}

// rankCategories orders cats by fuzzy match against query. When nothing
// matches as a subsequence, names within a small edit distance are offered.
func rankCategories(cats []ledger.Category, query string) []ledger.Category {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]ledger.Category(nil), cats...)
	}

	var hits []scored
	for _, c := range cats {
		if ok, score := fuzzyMatchScore(c.Name, query); ok {
			hits = append(hits, scored{cat: c, score: score})
		}
	}
	if len(hits) > 0 {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
		return unwrap(hits)
	}

	q := []rune(strings.ToLower(query))
	limit := max(1, len(q)/3)
	for _, c := range cats {
		name := []rune(strings.ToLower(c.Name))
		if len(name) > len(q) {
			name = name[:len(q)]
		}
		if d := levenshtein.ComputeDistance(string(name), string(q)); d <= limit {
			hits = append(hits, scored{cat: c, score: -d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	return unwrap(hits)
}

func unwrap(hits []scored) []ledger.Category {
	out := make([]ledger.Category, len(hits))
	for i, h := range hits {
		out[i] = h.cat
	}
	return out
}

// fuzzyMatchScore reports whether query is a subsequence of name, compared
// rune by rune without case, and how well it matches. Hits at the start of the
// name or of a word score higher, and so do runs of adjacent hits.
func fuzzyMatchScore(name, query string) (bool, int) {
	q := []rune(strings.ToLower(query))
	if len(q) == 0 {
		return true, 0
	}
	n := []rune(strings.ToLower(name))

	score := len(q)
	prev := -2
	at := 0
	for _, r := range q {
		for at < len(n) && n[at] != r {
			at++
		}
		if at == len(n) {
			return false, 0
		}
		switch {
		case at == 0:
			score += 10
		case unicode.IsSpace(n[at-1]):
			score += 5
		}
		if at == prev+1 {
			score += 3
		}
		prev = at
		at++
	}
	if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(query)) {
		score += 20
	}
	return true, score
}
