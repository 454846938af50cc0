package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/jask/fintrack/internal/api"
	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/logging"
)

func (c *Controller) requireAuth() error {
	if !c.read().authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// AddTransaction submits a transaction and, on success, reloads the active
// view. The filter selection is kept. Backend rejections come back as
// *api.ValidationError with state untouched.
func (c *Controller) AddTransaction(ctx context.Context, in ledger.NewTransaction) (ledger.Transaction, error) {
	if err := c.requireAuth(); err != nil {
		return ledger.Transaction{}, err
	}
	if in.CategoryID == 0 {
		return ledger.Transaction{}, &api.ValidationError{
			Message: fmt.Sprintf("Please add a %s category in Manage & Settings first.", in.Type),
		}
	}
	tx, err := c.gw.CreateTransaction(ctx, in)
	if err != nil {
		return ledger.Transaction{}, c.handle(err)
	}
	c.log.Info("transaction added", "id", tx.ID, logging.FieldOperation, "create")
	return tx, c.Reload(ctx)
}

// RequestDelete marks id as awaiting confirmation.
func (c *Controller) RequestDelete(id int64) {
	c.update(func(m *model) { m.pendingDelete = id })
}

// CancelDelete abandons a pending delete.
func (c *Controller) CancelDelete() {
	c.update(func(m *model) { m.pendingDelete = 0 })
}

// ConfirmDelete deletes the pending transaction. On success the id is removed
// from the cache and the view re-derived without a refetch. Without a pending
// id it does nothing. Any failure abandons the intent.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	var id int64
	c.update(func(m *model) {
		id = m.pendingDelete
		m.pendingDelete = 0
	})
	if id == 0 {
		return nil
	}
	if err := c.requireAuth(); err != nil {
		return err
	}

	res, err := c.gw.DeleteTransaction(ctx, id)
	if err != nil {
		return c.handle(err)
	}
	if !res.Success {
		return &api.OperationError{Op: "delete transaction", Message: "Failed to delete transaction"}
	}
	c.update(func(m *model) {
		kept := make([]ledger.Transaction, 0, len(m.transactions))
		for _, tx := range m.transactions {
			if tx.ID != id {
				kept = append(kept, tx)
			}
		}
		m.transactions = kept
	})
	c.log.Info("transaction deleted", "id", id, logging.FieldOperation, "delete")
	return nil
}

// AddCategory creates a category and refetches the category list. A blank
// name is ignored.
func (c *Controller) AddCategory(ctx context.Context, name string, typ ledger.TxType) (ledger.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Category{}, nil
	}
	if err := c.requireAuth(); err != nil {
		return ledger.Category{}, err
	}
	cat, err := c.gw.CreateCategory(ctx, name, typ)
	if err != nil {
		return ledger.Category{}, c.handle(err)
	}
	return cat, c.refreshCategories(ctx)
}

// DeleteCategory removes a category. The category list is refetched whether
// or not the backend accepted the delete.
func (c *Controller) DeleteCategory(ctx context.Context, id int64) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	res, err := c.gw.DeleteCategory(ctx, id)
	if err != nil && api.IsSessionExpired(err) {
		return c.handle(err)
	}
	if err == nil && !res.Success {
		err = &api.OperationError{Op: "delete category", Message: "Failed to delete category"}
	}
	if rerr := c.refreshCategories(ctx); rerr != nil && (err == nil || api.IsSessionExpired(rerr)) {
		return rerr
	}
	return err
}

// ChangePIN forwards a PIN change. It does not touch view state.
func (c *Controller) ChangePIN(ctx context.Context, current, next string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	return c.handle(c.gw.ChangePIN(ctx, current, next))
}
