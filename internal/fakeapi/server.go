// Package fakeapi is an in-memory implementation of the finance backend. It
// backs the -demo mode of the binary and the integration tests of the client.
package fakeapi

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/logging"
	"github.com/jask/fintrack/internal/testdata"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// DefaultPIN is the PIN of a freshly created backend.
const DefaultPIN = "1234"

const sessionCookie = "session"

type failure struct {
	status  int
	message string
}

// Server holds the backend state. All fields are guarded by mu.
type Server struct {
	mu           sync.Mutex
	pin          string
	sessions     map[string]struct{}
	categories   []ledger.Category
	transactions []ledger.Transaction
	nextID       int64
	failures     map[string]failure
	calls        map[string]int

	now func() time.Time
	log *slog.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithClock sets the time source used for dashboards and sample data.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = logging.For(l, logging.ComponentFake) }
}

// WithoutDefaultCategories starts with an empty category list.
func WithoutDefaultCategories() Option {
	return func(s *Server) { s.categories = nil }
}

// New returns a backend with the default PIN and starter categories.
func New(opts ...Option) *Server {
	s := &Server{
		pin:      DefaultPIN,
		sessions: map[string]struct{}{},
		failures: map[string]failure{},
		calls:    map[string]int{},
		now:      time.Now,
		log:      logging.For(nil, logging.ComponentFake),
	}
	for _, c := range testdata.StarterCategories {
		s.addCategoryLocked(c.Name, c.Type)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.injectFailures())

	r.POST("/api/login", s.login)
	r.POST("/api/logout", s.logout)
	r.GET("/api/me", s.me)

	authed := r.Group("/api", s.requireSession())
	authed.POST("/change-pin", s.changePIN)
	authed.GET("/categories", s.listCategories)
	authed.POST("/categories", s.createCategory)
	authed.DELETE("/categories", s.deleteCategory)
	authed.GET("/transactions", s.listTransactions)
	authed.POST("/transactions", s.createTransaction)
	authed.DELETE("/transactions", s.deleteTransaction)
	authed.GET("/dashboard", s.dashboard)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request handled",
			logging.FieldRequestID, c.GetHeader("X-Request-ID"),
			logging.FieldMethod, c.Request.Method,
			logging.FieldPath, c.Request.URL.Path,
			logging.FieldStatusCode, c.Writer.Status(),
			logging.FieldDuration, time.Since(start).Milliseconds())
	}
}

func failureKey(method, path string) string { return method + " " + path }

// injectFailures answers with a queued failure and counts every call.
func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := failureKey(c.Request.Method, c.Request.URL.Path)
		s.mu.Lock()
		s.calls[key]++
		f, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()
		if ok {
			c.AbortWithStatusJSON(f.status, gin.H{"error": f.message})
		}
	}
}

func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		s.mu.Lock()
		_, ok := s.sessions[token]
		s.mu.Unlock()
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// FailNext makes the next request to method+path fail with status and message.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey(method, path)] = failure{status: status, message: message}
}

// Calls reports how many requests reached method+path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[failureKey(method, path)]
}

// ExpireSessions drops every session, so the next authenticated call gets 401.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = map[string]struct{}{}
}

// PIN returns the current PIN.
func (s *Server) PIN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin
}

// AddCategory inserts a category directly, bypassing HTTP.
func (s *Server) AddCategory(name string, typ ledger.TxType) ledger.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(name, typ)
}

// AddTransaction inserts a transaction directly, bypassing HTTP.
func (s *Server) AddTransaction(tx ledger.Transaction) ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tx.ID = s.nextID
	if cat, ok := s.categoryLocked(tx.CategoryID); ok {
		tx.CategoryName = cat.Name
	}
	s.transactions = append(s.transactions, tx)
	return tx
}

// Categories returns a copy of the stored categories.
func (s *Server) Categories() []ledger.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Category(nil), s.categories...)
}

// Transactions returns a copy of the stored transactions.
func (s *Server) Transactions() []ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Transaction(nil), s.transactions...)
}

// CategoryByName finds a category by exact name.
func (s *Server) CategoryByName(name string) (ledger.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return c, true
		}
	}
	return ledger.Category{}, false
}

// SeedSample fills the backend with a few months of plausible activity.
func (s *Server) SeedSample() {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := ledger.Day(s.now())
	byName := map[string]ledger.Category{}
	for _, c := range s.categories {
		byName[c.Name] = c
	}
	add := func(daysAgo int, cat string, amount int64, desc string) {
		c, ok := byName[cat]
		if !ok {
			return
		}
		s.nextID++
		s.transactions = append(s.transactions, ledger.Transaction{
			ID:           s.nextID,
			Type:         c.Type,
			Amount:       decimal.NewFromInt(amount),
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Date:         today.AddDate(0, 0, -daysAgo).Format(ledger.DateLayout),
			Description:  desc,
		})
	}
	for m := 0; m < 4; m++ {
		base := m * 30
		add(base+1, "Salary", 85000, "Monthly salary")
		add(base+3, "Rent", 22000, "House rent")
		add(base+5, "Food", 3400, "Groceries")
		add(base+9, "Transport", 1200, "Metro card")
		add(base+12, "Freelance", 15000, "Client invoice")
		add(base+15, "Entertainment", 1800, "Movie night")
		add(base+20, "Food", 950, "Dinner out")
	}
	add(0, "Food", 240, "Coffee")
}

// SeedRandom adds n random transactions from the last days days, drawn from
// the current categories.
func (s *Server) SeedRandom(seed int64, n, days int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := testdata.New(seed, s.categories)
	for _, tx := range gen.Transactions(n, s.now(), days) {
		s.nextID++
		tx.ID = s.nextID
		s.transactions = append(s.transactions, tx)
	}
}

func (s *Server) addCategoryLocked(name string, typ ledger.TxType) ledger.Category {
	s.nextID++
	c := ledger.Category{ID: s.nextID, Name: name, Type: typ}
	s.categories = append(s.categories, c)
	return c
}

func (s *Server) categoryLocked(id int64) (ledger.Category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return ledger.Category{}, false
}

func (s *Server) login(c *gin.Context) {
	var body struct {
		PIN string `json:"pin"`
	}
	_ = c.ShouldBindJSON(&body)
	s.mu.Lock()
	ok := body.PIN != "" && body.PIN == s.pin
	token := ""
	if ok {
		token = uuid.NewString()
		s.sessions[token] = struct{}{}
	}
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid PIN"})
		return
	}
	c.SetCookie(sessionCookie, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in successfully"})
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *Server) me(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	s.mu.Lock()
	_, ok := s.sessions[token]
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"authenticated": err == nil && ok})
}

func (s *Server) changePIN(c *gin.Context) {
	var body struct {
		Current string `json:"current_pin"`
		New     string `json:"new_pin"`
	}
	_ = c.ShouldBindJSON(&body)
	s.mu.Lock()
	defer s.mu.Unlock()
	if body.Current != s.pin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid current PIN"})
		return
	}
	if !isPIN(body.New) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New PIN must be 4 digits"})
		return
	}
	s.pin = body.New
	c.JSON(http.StatusOK, gin.H{"message": "PIN updated successfully"})
}

func isPIN(p string) bool {
	if len(p) != 4 {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Server) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.Categories())
}

func (s *Server) createCategory(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	_ = c.ShouldBindJSON(&body)
	name := strings.TrimSpace(body.Name)
	typ := ledger.TxType(body.Type)
	if name == "" || !typ.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	c.JSON(http.StatusCreated, s.AddCategory(name, typ))
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := queryID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cat := range s.categories {
		if ok && cat.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
}

func (s *Server) listTransactions(c *gin.Context) {
	var start, end time.Time
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(ledger.DateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		start = t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(ledger.DateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}
		end = t
	}
	typ := c.Query("type")

	out := make([]ledger.Transaction, 0)
	for _, tx := range s.Transactions() {
		if typ != "" && string(tx.Type) != typ {
			continue
		}
		d, err := time.Parse(ledger.DateLayout, tx.Date)
		if err == nil {
			if !start.IsZero() && d.Before(start) {
				continue
			}
			if !end.IsZero() && d.After(end) {
				continue
			}
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	c.JSON(http.StatusOK, out)
}

func (s *Server) createTransaction(c *gin.Context) {
	var body struct {
		Type        string              `json:"type"`
		Amount      decimal.NullDecimal `json:"amount"`
		CategoryID  int64               `json:"category_id"`
		Date        string              `json:"date"`
		Description string              `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.CategoryID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category is required"})
		return
	}
	if !body.Amount.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is required"})
		return
	}
	if _, err := time.Parse(ledger.DateLayout, body.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time data '" + body.Date + "' does not match format '%Y-%m-%d'"})
		return
	}
	typ := ledger.TxType(body.Type)
	if !typ.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
		return
	}

	s.mu.Lock()
	cat, ok := s.categoryLocked(body.CategoryID)
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
		return
	}
	tx := s.AddTransaction(ledger.Transaction{
		Type:         typ,
		Amount:       body.Amount.Decimal,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Date:         body.Date,
		Description:  body.Description,
	})
	c.JSON(http.StatusCreated, tx)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	id, ok := queryID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.transactions {
		if ok && tx.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
}

func queryID(c *gin.Context) (int64, bool) {
	var q struct {
		ID int64 `form:"id"`
	}
	if err := c.ShouldBindQuery(&q); err != nil || q.ID == 0 {
		return 0, false
	}
	return q.ID, true
}

func (s *Server) dashboard(c *gin.Context) {
	period, err := ledger.ParsePeriod(c.DefaultQuery("period", string(ledger.Monthly)))
	if err != nil {
		period = ledger.Monthly
	}
	c.JSON(http.StatusOK, Aggregate(s.Transactions(), period, s.now()))
}
