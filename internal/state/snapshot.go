package state

import (
	"github.com/jask/fintrack/internal/api"
	"github.com/jask/fintrack/internal/filter"
	"github.com/jask/fintrack/internal/ledger"
)

// Snapshot is an immutable, fully derived copy of the controller state.
// Transactions is already filtered and sorted for the current selection.
type Snapshot struct {
	Version       uint64
	Authenticated bool
	View          View
	Period        ledger.Period
	Selection     filter.Selection

	Dashboard       ledger.Dashboard
	DashboardLoaded bool
	Transactions    []ledger.Transaction
	CachedCount     int
	Categories      []ledger.Category
	PendingDelete   int64

	Loading bool
	Err     error
}

// Retryable reports whether the last load failed in a way a retry may fix.
func (s Snapshot) Retryable() bool {
	return s.Err != nil && api.IsNetwork(s.Err)
}

// CategoriesOf returns the categories of one type.
func (s Snapshot) CategoriesOf(t ledger.TxType) []ledger.Category {
	return ledger.CategoriesOf(s.Categories, t)
}

// PendingTransaction returns the transaction awaiting delete confirmation.
func (s Snapshot) PendingTransaction() (ledger.Transaction, bool) {
	if s.PendingDelete == 0 {
		return ledger.Transaction{}, false
	}
	for _, tx := range s.Transactions {
		if tx.ID == s.PendingDelete {
			return tx, true
		}
	}
	return ledger.Transaction{ID: s.PendingDelete}, true
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	m := c.m
	return Snapshot{
		Version:         m.version,
		Authenticated:   m.authenticated,
		View:            m.view,
		Period:          m.period,
		Selection:       m.sel,
		Dashboard:       m.dashboard,
		DashboardLoaded: m.dashboardLoaded,
		Transactions:    filter.Apply(m.transactions, m.sel, c.now()),
		CachedCount:     len(m.transactions),
		Categories:      append([]ledger.Category(nil), m.categories...),
		PendingDelete:   m.pendingDelete,
		Loading:         m.loading > 0,
		Err:             m.loadErr,
	}
}
