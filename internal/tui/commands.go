package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/state"
)

// noticeTTL is how long success notices stay on screen.
const noticeTTL = 1500 * time.Millisecond

// messages
type loginDoneMsg struct{ err error }

type opDoneMsg struct {
	op      string
	notice  string
	err     error
	applied bool // the mutation reached the backend even if err is set
}

type clearNoticeMsg struct{ seq int }

// Controller calls are blocking, so every one runs as a command. State
// changes reach the view through the notifier, not through these results.

func (a *App) startCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "start", err: a.ctl.Start(a.ctx)}
	}
}

func (a *App) loginCmd(pin string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: a.ctl.Login(a.ctx, pin)}
	}
}

func (a *App) switchCmd(v state.View) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "switch", err: a.ctl.SwitchView(a.ctx, v)}
	}
}

func (a *App) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "reload", err: a.ctl.Reload(a.ctx)}
	}
}

func (a *App) periodCmd(p ledger.Period) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "period", err: a.ctl.SetPeriod(a.ctx, p)}
	}
}

func (a *App) addTransactionCmd(in ledger.NewTransaction) tea.Cmd {
	return func() tea.Msg {
		tx, err := a.ctl.AddTransaction(a.ctx, in)
		return opDoneMsg{op: "add transaction", notice: "Transaction added", err: err, applied: tx.ID != 0}
	}
}

func (a *App) confirmDeleteCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "delete transaction", notice: "Deleted", err: a.ctl.ConfirmDelete(a.ctx)}
	}
}

func (a *App) addCategoryCmd(name string, typ ledger.TxType) tea.Cmd {
	return func() tea.Msg {
		cat, err := a.ctl.AddCategory(a.ctx, name, typ)
		return opDoneMsg{op: "add category", notice: "Category added", err: err, applied: cat.ID != 0}
	}
}

func (a *App) deleteCategoryCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "delete category", notice: "Category deleted", err: a.ctl.DeleteCategory(a.ctx, id)}
	}
}

func (a *App) changePINCmd(current, next string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "change pin", notice: "PIN updated", err: a.ctl.ChangePIN(a.ctx, current, next)}
	}
}

func (a *App) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "logout", notice: "Logged out", err: a.ctl.Logout(a.ctx)}
	}
}

func clearNoticeAfter(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}
