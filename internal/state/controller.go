// Package state owns the client-side view state: which view is active, the
// cached transactions and categories, the filter selection and the pending
// delete. Every change goes through a Controller method, and the renderer is
// handed a fully derived Snapshot after each one.
package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jask/fintrack/internal/api"
	"github.com/jask/fintrack/internal/filter"
	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/logging"
)

// View is one of the top-level screens.
type View string

const (
	ViewDashboard    View = "dashboard"
	ViewTransactions View = "transactions"
	ViewManage       View = "manage"
)

// ErrNotAuthenticated is returned by transitions that need a session.
var ErrNotAuthenticated = errors.New("not logged in")

// Renderer receives a snapshot after every state change. Calls happen outside
// the controller lock and may arrive from several goroutines; use
// Snapshot.Version to drop stale ones.
type Renderer interface {
	Render(Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Snapshot)

func (f RendererFunc) Render(s Snapshot) { f(s) }

// model is the mutable state. Guarded by Controller.mu.
type model struct {
	version       uint64
	epoch         uint64
	authenticated bool
	view          View
	period        ledger.Period
	sel           filter.Selection

	dashboard       ledger.Dashboard
	dashboardLoaded bool
	transactions    []ledger.Transaction
	categories      []ledger.Category
	pendingDelete   int64

	loading int
	loadErr error
}

// Controller is the single owner of the view state.
type Controller struct {
	gw            Gateway
	now           func() time.Time
	log           *slog.Logger
	defaultPeriod ledger.Period

	mu       sync.Mutex
	m        model
	renderer Renderer
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock sets the time source used for date filtering.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = logging.For(l, logging.ComponentState) }
}

// WithDefaultPeriod sets the dashboard period used after login and reset.
func WithDefaultPeriod(p ledger.Period) Option {
	return func(c *Controller) { c.defaultPeriod = p }
}

// WithRenderer registers the renderer at construction.
func WithRenderer(r Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

// New returns a controller in the unauthenticated state.
func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gw:            gw,
		now:           time.Now,
		log:           logging.For(nil, logging.ComponentState),
		defaultPeriod: ledger.DefaultPeriod,
	}
	for _, o := range opts {
		o(c)
	}
	c.m = c.initial(0)
	return c
}

func (c *Controller) initial(epoch uint64) model {
	return model{
		epoch:  epoch,
		view:   ViewDashboard,
		period: c.defaultPeriod,
		sel:    filter.DefaultSelection(),
	}
}

// SetRenderer replaces the renderer.
func (c *Controller) SetRenderer(r Renderer) {
	c.mu.Lock()
	c.renderer = r
	c.mu.Unlock()
}

// update applies fn under the lock, then renders outside it.
func (c *Controller) update(fn func(m *model)) {
	c.mu.Lock()
	fn(&c.m)
	c.m.version++
	snap := c.snapshotLocked()
	r := c.renderer
	c.mu.Unlock()
	if r != nil {
		r.Render(snap)
	}
}

// updateIf is update for async results: it only applies fn while the session
// that started the request is still current.
func (c *Controller) updateIf(epoch uint64, fn func(m *model)) bool {
	applied := false
	c.update(func(m *model) {
		if m.epoch != epoch || !m.authenticated {
			return
		}
		fn(m)
		applied = true
	})
	return applied
}

func (c *Controller) read() model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m
}

// Start restores an existing session, if any.
func (c *Controller) Start(ctx context.Context) error {
	st, err := c.gw.CheckAuth(ctx)
	if err != nil {
		c.update(func(m *model) { m.loadErr = err })
		return err
	}
	if !st.Authenticated {
		c.update(func(m *model) {
			m.authenticated = false
			m.loadErr = nil
		})
		return nil
	}
	return c.authenticated(ctx)
}

// Login authenticates with pin and enters the dashboard. A rejected PIN comes
// back as *api.AuthError with state untouched.
func (c *Controller) Login(ctx context.Context, pin string) error {
	if _, err := c.gw.Login(ctx, pin); err != nil {
		return err
	}
	return c.authenticated(ctx)
}

func (c *Controller) authenticated(ctx context.Context) error {
	c.update(func(m *model) {
		*m = c.initial(m.epoch + 1)
		m.authenticated = true
	})
	c.log.Info("session established")
	return c.SwitchView(ctx, ViewDashboard)
}

// Logout ends the session and clears every cache. Backend errors are logged
// only: the local session is gone either way.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.gw.Logout(ctx); err != nil {
		c.log.Warn("logout failed", logging.FieldError, err)
	}
	c.reset("logout")
	return nil
}

func (c *Controller) reset(reason string) {
	c.update(func(m *model) {
		*m = c.initial(m.epoch + 1)
	})
	c.log.Warn("state reset", "reason", reason)
}

// handle routes the session-expired signal to a reset and passes err through.
func (c *Controller) handle(err error) error {
	if err != nil && api.IsSessionExpired(err) {
		c.reset("session expired")
	}
	return err
}

// SwitchView makes target the active view and loads what it needs:
//
//	dashboard:    dashboard for the remembered period; categories if empty
//	transactions: selection reset; full list always; categories if empty
//	manage:       categories always
func (c *Controller) SwitchView(ctx context.Context, target View) error {
	var authed bool
	c.update(func(m *model) {
		authed = m.authenticated
		if !authed {
			return
		}
		m.view = target
		m.pendingDelete = 0
		m.loadErr = nil
		if target == ViewTransactions {
			m.sel = filter.DefaultSelection()
		}
	})
	if !authed {
		return ErrNotAuthenticated
	}
	c.log.Debug("view switched", logging.FieldView, string(target))
	return c.load(ctx, target, target == ViewManage)
}

// Reload re-fetches the active view's data without touching the selection.
func (c *Controller) Reload(ctx context.Context) error {
	m := c.read()
	if !m.authenticated {
		return ErrNotAuthenticated
	}
	c.update(func(m *model) { m.loadErr = nil })
	return c.load(ctx, m.view, m.view == ViewManage)
}

// SetPeriod changes the dashboard period and refetches the dashboard only.
func (c *Controller) SetPeriod(ctx context.Context, p ledger.Period) error {
	var (
		authed bool
		epoch  uint64
	)
	c.update(func(m *model) {
		authed = m.authenticated
		epoch = m.epoch
		if authed {
			m.period = p
		}
	})
	if !authed {
		return ErrNotAuthenticated
	}
	return c.finish(epoch, c.run(epoch, c.fetchDashboard(ctx, epoch, p)))
}

// SetSelection replaces the filter selection. No fetch happens.
func (c *Controller) SetSelection(sel filter.Selection) {
	c.update(func(m *model) { m.sel = sel })
}

// CycleType advances the type axis of the selection.
func (c *Controller) CycleType() {
	c.update(func(m *model) { m.sel = m.sel.NextType() })
}

// CycleDateRange advances the date axis of the selection.
func (c *Controller) CycleDateRange() {
	c.update(func(m *model) { m.sel = m.sel.NextDate() })
}

// load fetches the data of view concurrently. Requests are never cancelled;
// whichever response lands last wins.
func (c *Controller) load(ctx context.Context, view View, forceCategories bool) error {
	m := c.read()
	epoch := m.epoch
	needCats := forceCategories || len(m.categories) == 0

	var jobs []func() error
	switch view {
	case ViewDashboard:
		jobs = append(jobs, c.fetchDashboard(ctx, epoch, m.period))
	case ViewTransactions:
		jobs = append(jobs, c.fetchTransactions(ctx, epoch))
	}
	if needCats {
		jobs = append(jobs, c.fetchCategories(ctx, epoch))
	}
	return c.finish(epoch, c.run(epoch, jobs...))
}

func (c *Controller) run(epoch uint64, jobs ...func() error) error {
	c.updateIf(epoch, func(m *model) { m.loading++ })
	defer c.update(func(m *model) {
		if m.epoch == epoch && m.loading > 0 {
			m.loading--
		}
	})

	// Every job runs to completion: a 401 from one fetch must not be hidden
	// behind an earlier failure of another.
	errs := make([]error, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			errs[i] = job()
			return nil
		})
	}
	_ = g.Wait()
	return firstError(errs)
}

// firstError returns the session-expired error if any job hit one, otherwise
// the first failure in job order.
func firstError(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if api.IsSessionExpired(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

// finish records a failed load for the retry affordance.
func (c *Controller) finish(epoch uint64, err error) error {
	if err == nil {
		return nil
	}
	if api.IsSessionExpired(err) {
		return c.handle(err)
	}
	c.log.Error("load failed", logging.FieldError, err)
	c.updateIf(epoch, func(m *model) { m.loadErr = err })
	return err
}

func (c *Controller) fetchDashboard(ctx context.Context, epoch uint64, p ledger.Period) func() error {
	return func() error {
		d, err := c.gw.FetchDashboard(ctx, p)
		if err != nil {
			return err
		}
		c.updateIf(epoch, func(m *model) {
			m.dashboard = d
			m.dashboardLoaded = true
		})
		return nil
	}
}

func (c *Controller) fetchTransactions(ctx context.Context, epoch uint64) func() error {
	return func() error {
		txs, err := c.gw.FetchTransactions(ctx, api.TransactionQuery{})
		if err != nil {
			return err
		}
		c.updateIf(epoch, func(m *model) { m.transactions = txs })
		return nil
	}
}

func (c *Controller) fetchCategories(ctx context.Context, epoch uint64) func() error {
	return func() error {
		cats, err := c.gw.FetchCategories(ctx)
		if err != nil {
			return err
		}
		c.updateIf(epoch, func(m *model) { m.categories = cats })
		return nil
	}
}

// refreshCategories refetches categories after a category mutation.
func (c *Controller) refreshCategories(ctx context.Context) error {
	epoch := c.read().epoch
	return c.finish(epoch, c.run(epoch, c.fetchCategories(ctx, epoch)))
}
