package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/jask/fintrack/internal/ledger"
)

func newInput(placeholder string, limit int) textinput.Model {
	inp := textinput.New()
	inp.Placeholder = placeholder
	inp.Prompt = ""
	inp.CharLimit = limit
	return inp
}

// pinInputLimit only bounds the field; PIN format is checked by the backend.
const pinInputLimit = 32

func newPINInput(placeholder string) textinput.Model {
	inp := newInput(placeholder, pinInputLimit)
	inp.EchoMode = textinput.EchoPassword
	inp.EchoCharacter = '•'
	return inp
}

func toggleType(t ledger.TxType) ledger.TxType {
	if t == ledger.Income {
		return ledger.Expense
	}
	return ledger.Income
}

// txForm fields, in tab order.
const (
	txFieldType = iota
	txFieldAmount
	txFieldDate
	txFieldDescription
	txFieldCategory
	txFieldCount
)

// txForm is the add-transaction modal.
type txForm struct {
	typ         ledger.TxType
	amount      textinput.Model
	date        textinput.Model
	description textinput.Model
	picker      categoryPicker
	focus       int
	err         string

	categories []ledger.Category
}

func newTxForm(cats []ledger.Category, today time.Time) txForm {
	f := txForm{
		typ:         ledger.Expense,
		amount:      newInput("0.00", 16),
		date:        newInput(ledger.DateLayout, 10),
		description: newInput("optional", 120),
		picker:      newCategoryPicker(),
		categories:  cats,
	}
	f.date.SetValue(today.Format(ledger.DateLayout))
	f.picker.SetCategories(ledger.CategoriesOf(cats, f.typ))
	f.setFocus(txFieldType)
	return f
}

func (f *txForm) setFocus(i int) {
	f.focus = (i + txFieldCount) % txFieldCount
	f.amount.Blur()
	f.date.Blur()
	f.description.Blur()
	f.picker.input.Blur()
	switch f.focus {
	case txFieldAmount:
		f.amount.Focus()
	case txFieldDate:
		f.date.Focus()
	case txFieldDescription:
		f.description.Focus()
	case txFieldCategory:
		f.picker.input.Focus()
	}
}

func (f *txForm) setType(t ledger.TxType) {
	f.typ = t
	f.picker.input.SetValue("")
	f.picker.cursor = 0
	f.picker.SetCategories(ledger.CategoriesOf(f.categories, t))
}

// Update routes a key to the focused field.
func (f *txForm) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		f.setFocus(f.focus + 1)
		return nil
	case "shift+tab":
		f.setFocus(f.focus - 1)
		return nil
	}
	var cmd tea.Cmd
	switch f.focus {
	case txFieldType:
		switch msg.String() {
		case "left", "right", " ", "h", "l":
			f.setType(toggleType(f.typ))
		case "i":
			f.setType(ledger.Income)
		case "e":
			f.setType(ledger.Expense)
		}
	case txFieldAmount:
		f.amount, cmd = f.amount.Update(msg)
	case txFieldDate:
		f.date, cmd = f.date.Update(msg)
	case txFieldDescription:
		f.description, cmd = f.description.Update(msg)
	case txFieldCategory:
		cmd = f.picker.Update(msg)
	}
	return cmd
}

// Submit validates the form. A missing category is left for the controller,
// which owns that guard's message.
func (f *txForm) Submit(loc *time.Location) (ledger.NewTransaction, error) {
	raw := strings.TrimSpace(f.amount.Value())
	if raw == "" {
		return ledger.NewTransaction{}, errors.New("Amount is required")
	}
	amt, err := decimal.NewFromString(raw)
	if err != nil || !amt.IsPositive() {
		return ledger.NewTransaction{}, errors.New("Amount must be a positive number")
	}
	date := strings.TrimSpace(f.date.Value())
	if _, ok := ledger.ParseDate(date, loc); !ok {
		return ledger.NewTransaction{}, errors.New("Date must be YYYY-MM-DD")
	}
	in := ledger.NewTransaction{
		Type:        f.typ,
		Amount:      amt.Round(2),
		Date:        date,
		Description: strings.TrimSpace(f.description.Value()),
	}
	if cat, ok := f.picker.Selected(); ok {
		in.CategoryID = cat.ID
	}
	return in, nil
}

// categoryForm is the new-category modal.
type categoryForm struct {
	name textinput.Model
	typ  ledger.TxType
	err  string
}

func newCategoryForm() categoryForm {
	f := categoryForm{name: newInput("category name", 40), typ: ledger.Expense}
	f.name.Focus()
	return f
}

func (f *categoryForm) Update(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "tab" {
		f.typ = toggleType(f.typ)
		return nil
	}
	var cmd tea.Cmd
	f.name, cmd = f.name.Update(msg)
	return cmd
}

// pinForm is the change-PIN modal.
type pinForm struct {
	current textinput.Model
	next    textinput.Model
	focus   int
	err     string
}

func newPINForm() pinForm {
	f := pinForm{current: newPINInput("current"), next: newPINInput("new")}
	f.current.Focus()
	return f
}

func (f *pinForm) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		f.focus = 1 - f.focus
		if f.focus == 0 {
			f.next.Blur()
			f.current.Focus()
		} else {
			f.current.Blur()
			f.next.Focus()
		}
		return nil
	}
	var cmd tea.Cmd
	if f.focus == 0 {
		f.current, cmd = f.current.Update(msg)
	} else {
		f.next, cmd = f.next.Update(msg)
	}
	return cmd
}

// Submit checks both PINs are present. Format rules are the backend's.
func (f *pinForm) Submit() (string, string, error) {
	cur := strings.TrimSpace(f.current.Value())
	next := strings.TrimSpace(f.next.Value())
	if cur == "" || next == "" {
		return "", "", errors.New("Enter both the current and the new PIN")
	}
	return cur, next, nil
}
