package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jask/fintrack/internal/ledger"
)

// Session is the backend's acknowledgement of a login.
type Session struct {
	Message string `json:"message"`
}

// AuthStatus is the result of a session check.
type AuthStatus struct {
	Authenticated bool `json:"authenticated"`
}

// DeleteResult reports whether the backend confirmed a deletion.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TransactionQuery holds the optional server-side filters of the list endpoint.
type TransactionQuery struct {
	Type      ledger.TxType
	StartDate string
	EndDate   string
}

func (q TransactionQuery) values() url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	return v
}

func idQuery(id int64) url.Values {
	return url.Values{"id": []string{strconv.FormatInt(id, 10)}}
}

// Login exchanges a PIN for a session cookie.
func (c *Client) Login(ctx context.Context, pin string) (Session, error) {
	const op = "login"
	r, err := c.do(ctx, op, http.MethodPost, "/api/login", nil, map[string]string{"pin": pin})
	if err != nil {
		return Session{}, err
	}
	if !r.ok() {
		msg := r.errorMessage()
		if msg == "" {
			msg = "Invalid PIN"
		}
		return Session{}, &AuthError{Message: msg}
	}
	// The cookie is what matters; a body we cannot read still means logged in.
	var s Session
	if err := r.decode(op, &s); err != nil {
		c.log.Warn("unreadable login response", "error", err)
	}
	return s, nil
}

// CheckAuth asks whether the current cookie is a live session. A non-2xx or
// unreadable answer means "not authenticated"; only transport failures error.
func (c *Client) CheckAuth(ctx context.Context) (AuthStatus, error) {
	const op = "check auth"
	r, err := c.do(ctx, op, http.MethodGet, "/api/me", nil, nil)
	if err != nil {
		return AuthStatus{}, err
	}
	if !r.ok() {
		return AuthStatus{}, nil
	}
	var st AuthStatus
	if err := r.decode(op, &st); err != nil {
		c.log.Warn("unreadable session status", "error", err)
		return AuthStatus{}, nil
	}
	return st, nil
}

// Logout ends the session on the backend.
func (c *Client) Logout(ctx context.Context) error {
	const op = "logout"
	r, err := c.do(ctx, op, http.MethodPost, "/api/logout", nil, nil)
	if err != nil {
		return err
	}
	if !r.ok() {
		return &StatusError{Op: op, Status: r.status, Message: r.errorMessage()}
	}
	return nil
}

// FetchDashboard returns aggregates for the period.
func (c *Client) FetchDashboard(ctx context.Context, period ledger.Period) (ledger.Dashboard, error) {
	const op = "fetch dashboard"
	r, err := c.authed(ctx, op, http.MethodGet, "/api/dashboard", url.Values{"period": []string{string(period)}}, nil)
	if err != nil {
		return ledger.Dashboard{}, err
	}
	if !r.ok() {
		return ledger.Dashboard{}, &StatusError{Op: op, Status: r.status, Message: r.errorMessage()}
	}
	var d ledger.Dashboard
	if err := r.decode(op, &d); err != nil {
		return ledger.Dashboard{}, err
	}
	return d, nil
}

// FetchTransactions lists transactions, optionally narrowed server-side.
func (c *Client) FetchTransactions(ctx context.Context, q TransactionQuery) ([]ledger.Transaction, error) {
	const op = "fetch transactions"
	r, err := c.authed(ctx, op, http.MethodGet, "/api/transactions", q.values(), nil)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, &StatusError{Op: op, Status: r.status, Message: r.errorMessage()}
	}
	txs := []ledger.Transaction{}
	if err := r.decode(op, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction submits a new transaction.
func (c *Client) CreateTransaction(ctx context.Context, in ledger.NewTransaction) (ledger.Transaction, error) {
	const op = "create transaction"
	r, err := c.authed(ctx, op, http.MethodPost, "/api/transactions", nil, in)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if !r.ok() {
		return ledger.Transaction{}, validation(r, "Could not add transaction")
	}
	var tx ledger.Transaction
	if err := r.decode(op, &tx); err != nil {
		return ledger.Transaction{}, err
	}
	return tx, nil
}

// DeleteTransaction removes a transaction by id.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) (DeleteResult, error) {
	return c.delete(ctx, "delete transaction", "/api/transactions", id)
}

// FetchCategories lists all categories.
func (c *Client) FetchCategories(ctx context.Context) ([]ledger.Category, error) {
	const op = "fetch categories"
	r, err := c.authed(ctx, op, http.MethodGet, "/api/categories", nil, nil)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, &StatusError{Op: op, Status: r.status, Message: r.errorMessage()}
	}
	cats := []ledger.Category{}
	if err := r.decode(op, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// CreateCategory adds a category of the given type.
func (c *Client) CreateCategory(ctx context.Context, name string, typ ledger.TxType) (ledger.Category, error) {
	const op = "create category"
	r, err := c.authed(ctx, op, http.MethodPost, "/api/categories", nil, map[string]string{"name": name, "type": string(typ)})
	if err != nil {
		return ledger.Category{}, err
	}
	if !r.ok() {
		return ledger.Category{}, validation(r, "Could not add category")
	}
	var cat ledger.Category
	if err := r.decode(op, &cat); err != nil {
		return ledger.Category{}, err
	}
	return cat, nil
}

// DeleteCategory removes a category by id.
func (c *Client) DeleteCategory(ctx context.Context, id int64) (DeleteResult, error) {
	return c.delete(ctx, "delete category", "/api/categories", id)
}

// ChangePIN replaces the PIN. Format rules are enforced by the backend.
func (c *Client) ChangePIN(ctx context.Context, current, next string) error {
	const op = "change pin"
	r, err := c.authed(ctx, op, http.MethodPost, "/api/change-pin", nil, map[string]string{"current_pin": current, "new_pin": next})
	if err != nil {
		return err
	}
	if !r.ok() {
		return validation(r, "Could not change PIN")
	}
	return nil
}

func (c *Client) delete(ctx context.Context, op, path string, id int64) (DeleteResult, error) {
	r, err := c.authed(ctx, op, http.MethodDelete, path, idQuery(id), nil)
	if err != nil {
		return DeleteResult{}, err
	}
	if !r.ok() {
		return DeleteResult{}, &OperationError{Op: op, Status: r.status, Message: r.errorMessage()}
	}
	var res DeleteResult
	if err := r.decode(op, &res); err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

func validation(r response, fallback string) error {
	msg := r.errorMessage()
	if msg == "" {
		msg = fallback
	}
	return &ValidationError{Status: r.status, Message: msg}
}
