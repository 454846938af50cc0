package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/fintrack/internal/api"
	"github.com/jask/fintrack/internal/config"
	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/logging"
	"github.com/jask/fintrack/internal/state"
)

// App ties together views.
type App struct {
	ctx   context.Context
	ctl   *state.Controller
	notes *Notifier
	log   *slog.Logger
	keys  keyMap

	currency   string
	dateFormat string
	tz         *time.Location
	now        func() time.Time

	snap      state.Snapshot
	pin       textinput.Model
	loginErr  string
	loggingIn bool

	modal      modalState
	txForm     txForm
	catForm    categoryForm
	pinForm    pinForm
	pendingCat ledger.Category
	txCursor   int
	catCursor  int
	status     string
	notice     string
	noticeSeq  int
	width      int
	height     int
}

type modalState string

const (
	modalNone           modalState = ""
	modalAddTransaction modalState = "addTransaction"
	modalConfirmDelete  modalState = "confirmDelete"
	modalNewCategory    modalState = "newCategory"
	modalDeleteCategory modalState = "deleteCategory"
	modalChangePIN      modalState = "changePIN"
)

// New builds the TUI over ctl and registers itself as the controller's
// renderer.
func New(ctx context.Context, ctl *state.Controller, ui config.UIConfig, tz *time.Location, log *slog.Logger) *App {
	if tz == nil {
		tz = time.Local
	}
	pin := textinput.New()
	pin.Placeholder = "PIN"
	pin.Prompt = "PIN: "
	pin.CharLimit = pinInputLimit
	pin.EchoMode = textinput.EchoPassword
	pin.EchoCharacter = '•'
	pin.Focus()

	a := &App{
		ctx:        ctx,
		ctl:        ctl,
		notes:      NewNotifier(),
		log:        logging.For(log, logging.ComponentTUI),
		currency:   ui.CurrencySymbol,
		dateFormat: ui.DateFormat,
		tz:         tz,
		now:        time.Now,
		pin:        pin,
		keys:       newKeyMap(),
	}
	ctl.SetRenderer(a.notes)
	a.snap = ctl.Snapshot()
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.notes.Wait(), a.startCmd(), textinput.Blink)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
	case snapshotMsg:
		a.applySnapshot(state.Snapshot(m))
		return a, a.notes.Wait()
	case loginDoneMsg:
		a.loggingIn = false
		a.pin.SetValue("")
		if m.err != nil {
			a.loginErr = api.UserMessage(m.err)
			a.log.Info("login rejected", logging.FieldError, m.err)
			return a, nil
		}
		a.loginErr = ""
	case opDoneMsg:
		return a, a.handleOpDone(m)
	case clearNoticeMsg:
		if m.seq == a.noticeSeq {
			a.notice = ""
		}
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.snap.Authenticated {
			return a, a.handleLoginKey(m)
		}
		if a.modal != modalNone {
			return a, a.handleModalKey(m)
		}
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) applySnapshot(s state.Snapshot) {
	if s.Version < a.snap.Version {
		return
	}
	wasAuthed := a.snap.Authenticated
	a.snap = s
	if wasAuthed && !s.Authenticated {
		a.modal = modalNone
		a.status = ""
		a.txCursor, a.catCursor = 0, 0
		a.pin.SetValue("")
		a.pin.Focus()
	}
	if a.txCursor >= len(s.Transactions) {
		a.txCursor = max(0, len(s.Transactions)-1)
	}
	if n := len(a.manageCategories()); a.catCursor >= n {
		a.catCursor = max(0, n-1)
	}
}

// formOps report failures inside their modal instead of the status line.
var formOps = map[string]modalState{
	"add transaction": modalAddTransaction,
	"add category":    modalNewCategory,
	"change pin":      modalChangePIN,
}

func (a *App) handleOpDone(m opDoneMsg) tea.Cmd {
	if m.err != nil {
		switch {
		case errors.Is(m.err, state.ErrNotAuthenticated):
			return nil
		case errors.Is(m.err, api.ErrSessionExpired):
			a.loginErr = api.UserMessage(m.err)
			return nil
		}
		a.log.Warn("operation failed", logging.FieldOperation, m.op, logging.FieldError, m.err)
		if modal, ok := formOps[m.op]; ok && a.modal == modal && !m.applied {
			a.setFormErr(api.UserMessage(m.err))
			return nil
		}
		if modal, ok := formOps[m.op]; ok && a.modal == modal {
			a.modal = modalNone
		}
		switch m.op {
		case "start", "switch", "reload", "period":
			// shown from the snapshot with the retry hint
		default:
			a.status = api.UserMessage(m.err)
		}
		return nil
	}
	if modal, ok := formOps[m.op]; ok && a.modal == modal {
		a.modal = modalNone
	}
	a.status = ""
	if m.notice == "" {
		return nil
	}
	a.notice = m.notice
	a.noticeSeq++
	return clearNoticeAfter(a.noticeSeq)
}

func (a *App) setFormErr(msg string) {
	switch a.modal {
	case modalAddTransaction:
		a.txForm.err = msg
	case modalNewCategory:
		a.catForm.err = msg
	case modalChangePIN:
		a.pinForm.err = msg
	}
}

func (a *App) handleLoginKey(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "esc":
		return tea.Quit
	case "R":
		if a.snap.Retryable() {
			a.loginErr = ""
			return a.startCmd()
		}
		return nil
	case "enter":
		if a.loggingIn {
			return nil
		}
		pin := strings.TrimSpace(a.pin.Value())
		if pin == "" {
			a.loginErr = "Enter your PIN"
			return nil
		}
		a.loggingIn = true
		a.loginErr = ""
		return a.loginCmd(pin)
	}
	var cmd tea.Cmd
	a.pin, cmd = a.pin.Update(m)
	return cmd
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Dashboard):
		a.status = ""
		return a, a.switchCmd(state.ViewDashboard)
	case key.Matches(m, a.keys.Transactions):
		a.status = ""
		a.txCursor = 0
		return a, a.switchCmd(state.ViewTransactions)
	case key.Matches(m, a.keys.Manage):
		a.status = ""
		return a, a.switchCmd(state.ViewManage)
	case key.Matches(m, a.keys.Retry):
		if a.snap.Err != nil {
			return a, a.reloadCmd()
		}
		return a, nil
	}
	switch a.snap.View {
	case state.ViewDashboard:
		if key.Matches(m, a.keys.Period) {
			return a, a.periodCmd(a.snap.Period.Next())
		}
	case state.ViewTransactions:
		return a, a.handleTransactionsKey(m)
	case state.ViewManage:
		return a, a.handleManageKey(m)
	}
	return a, nil
}

func (a *App) handleTransactionsKey(m tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(m, a.keys.Up):
		if a.txCursor > 0 {
			a.txCursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.txCursor < len(a.snap.Transactions)-1 {
			a.txCursor++
		}
	case key.Matches(m, a.keys.DateRange):
		a.txCursor = 0
		a.ctl.CycleDateRange()
	case key.Matches(m, a.keys.TypeFilter):
		a.txCursor = 0
		a.ctl.CycleType()
	case key.Matches(m, a.keys.Add):
		a.txForm = newTxForm(a.snap.Categories, a.now().In(a.tz))
		a.modal = modalAddTransaction
	case key.Matches(m, a.keys.Delete):
		if len(a.snap.Transactions) == 0 {
			return nil
		}
		a.ctl.RequestDelete(a.snap.Transactions[a.txCursor].ID)
		a.modal = modalConfirmDelete
	}
	return nil
}

// manageCategories is the manage view's list: income first, then expense.
func (a *App) manageCategories() []ledger.Category {
	out := a.snap.CategoriesOf(ledger.Income)
	return append(out, a.snap.CategoriesOf(ledger.Expense)...)
}

func (a *App) handleManageKey(m tea.KeyMsg) tea.Cmd {
	cats := a.manageCategories()
	switch {
	case key.Matches(m, a.keys.Up):
		if a.catCursor > 0 {
			a.catCursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.catCursor < len(cats)-1 {
			a.catCursor++
		}
	case key.Matches(m, a.keys.NewCategory):
		a.catForm = newCategoryForm()
		a.modal = modalNewCategory
	case key.Matches(m, a.keys.Delete):
		if len(cats) == 0 {
			return nil
		}
		a.pendingCat = cats[a.catCursor]
		a.modal = modalDeleteCategory
	case key.Matches(m, a.keys.ChangePIN):
		a.pinForm = newPINForm()
		a.modal = modalChangePIN
	case key.Matches(m, a.keys.Logout):
		return a.logoutCmd()
	}
	return nil
}

func (a *App) handleModalKey(m tea.KeyMsg) tea.Cmd {
	switch a.modal {
	case modalConfirmDelete:
		switch {
		case key.Matches(m, a.keys.Yes):
			a.modal = modalNone
			return a.confirmDeleteCmd()
		case key.Matches(m, a.keys.No):
			a.modal = modalNone
			a.ctl.CancelDelete()
		}
	case modalDeleteCategory:
		switch {
		case key.Matches(m, a.keys.Yes):
			a.modal = modalNone
			return a.deleteCategoryCmd(a.pendingCat.ID)
		case key.Matches(m, a.keys.No):
			a.modal = modalNone
		}
	case modalAddTransaction:
		switch m.String() {
		case "esc":
			a.modal = modalNone
			return nil
		case "enter":
			in, err := a.txForm.Submit(a.tz)
			if err != nil {
				a.txForm.err = err.Error()
				return nil
			}
			a.txForm.err = ""
			return a.addTransactionCmd(in)
		}
		return a.txForm.Update(m)
	case modalNewCategory:
		switch m.String() {
		case "esc":
			a.modal = modalNone
			return nil
		case "enter":
			name := strings.TrimSpace(a.catForm.name.Value())
			if name == "" {
				a.modal = modalNone
				return nil
			}
			a.catForm.err = ""
			return a.addCategoryCmd(name, a.catForm.typ)
		}
		return a.catForm.Update(m)
	case modalChangePIN:
		switch m.String() {
		case "esc":
			a.modal = modalNone
			return nil
		case "enter":
			cur, next, err := a.pinForm.Submit()
			if err != nil {
				a.pinForm.err = err.Error()
				return nil
			}
			a.pinForm.err = ""
			return a.changePINCmd(cur, next)
		}
		return a.pinForm.Update(m)
	}
	return nil
}

func (a *App) View() string {
	if !a.snap.Authenticated {
		return a.renderLogin()
	}
	var body string
	switch a.snap.View {
	case state.ViewTransactions:
		body = a.renderTransactions()
	case state.ViewManage:
		body = a.renderManage()
	default:
		body = a.renderDashboard()
	}
	out := a.renderHeader() + "\n\n" + body
	if a.modal != modalNone {
		out += "\n\n" + a.renderModal()
	}
	return out + "\n" + a.renderFooter()
}
