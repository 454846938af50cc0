package api_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/fintrack/internal/api"
	"github.com/jask/fintrack/internal/fakeapi"
	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/logging"
)

func newBackend(t *testing.T, opts ...fakeapi.Option) (*fakeapi.Server, *api.Client) {
	t.Helper()
	backend := fakeapi.New(opts...)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, api.WithTimeout(5*time.Second))
	require.NoError(t, err)
	return backend, client
}

func loggedIn(t *testing.T, opts ...fakeapi.Option) (*fakeapi.Server, *api.Client) {
	t.Helper()
	backend, client := newBackend(t, opts...)
	_, err := client.Login(context.Background(), fakeapi.DefaultPIN)
	require.NoError(t, err)
	return backend, client
}

func TestNewRejectsBadURL(t *testing.T) {
	t.Parallel()
	_, err := api.New("ftp://example.com")
	require.Error(t, err)
	_, err = api.New("http://[::1")
	require.Error(t, err)
}

func TestLoginAndCheckAuth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, client := newBackend(t)

	st, err := client.CheckAuth(ctx)
	require.NoError(t, err)
	assert.False(t, st.Authenticated)

	_, err = client.Login(ctx, "0000")
	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid PIN", authErr.Message)

	sess, err := client.Login(ctx, fakeapi.DefaultPIN)
	require.NoError(t, err)
	assert.Equal(t, "Logged in successfully", sess.Message)

	st, err = client.CheckAuth(ctx)
	require.NoError(t, err)
	assert.True(t, st.Authenticated)

	require.NoError(t, client.Logout(ctx))
	st, err = client.CheckAuth(ctx)
	require.NoError(t, err)
	assert.False(t, st.Authenticated)
}

func TestCheckAuthNeverFailsOnStatus(t *testing.T) {
	t.Parallel()
	backend, client := newBackend(t)
	backend.FailNext(http.MethodGet, "/api/me", http.StatusInternalServerError, "boom")

	st, err := client.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Authenticated)
}

func TestAuthenticatedCallsMap401ToSessionExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend, client := loggedIn(t)
	backend.ExpireSessions()

	_, err := client.FetchDashboard(ctx, ledger.Monthly)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	_, err = client.FetchTransactions(ctx, api.TransactionQuery{})
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	_, err = client.FetchCategories(ctx)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	_, err = client.CreateTransaction(ctx, ledger.NewTransaction{CategoryID: 1})
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	_, err = client.DeleteTransaction(ctx, 1)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	_, err = client.CreateCategory(ctx, "Gifts", ledger.Income)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	_, err = client.DeleteCategory(ctx, 1)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	err = client.ChangePIN(ctx, "1234", "5678")
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.True(t, api.IsSessionExpired(err))
}

func TestTransactionsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend, client := loggedIn(t)
	food, ok := backend.CategoryByName("Food")
	require.True(t, ok)

	created, err := client.CreateTransaction(ctx, ledger.NewTransaction{
		Type:        ledger.Expense,
		Amount:      decimal.RequireFromString("249.50"),
		CategoryID:  food.ID,
		Date:        "2024-03-05",
		Description: "Groceries",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Food", created.CategoryName)
	assert.True(t, decimal.RequireFromString("249.5").Equal(created.Amount))

	salary, _ := backend.CategoryByName("Salary")
	backend.AddTransaction(ledger.Transaction{Type: ledger.Income, Amount: decimal.NewFromInt(900), CategoryID: salary.ID, Date: "2024-02-01"})

	all, err := client.FetchTransactions(ctx, api.TransactionQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, created.ID, all[0].ID, "newest first")

	onlyIncome, err := client.FetchTransactions(ctx, api.TransactionQuery{Type: ledger.Income})
	require.NoError(t, err)
	require.Len(t, onlyIncome, 1)
	assert.Equal(t, ledger.Income, onlyIncome[0].Type)

	march, err := client.FetchTransactions(ctx, api.TransactionQuery{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, created.ID, march[0].ID)

	res, err := client.DeleteTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = client.DeleteTransaction(ctx, created.ID)
	var opErr *api.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, http.StatusNotFound, opErr.Status)
	assert.Equal(t, "Transaction not found", opErr.Message)
}

func TestFetchTransactionsEmptyIsNotNil(t *testing.T) {
	t.Parallel()
	_, client := loggedIn(t)
	txs, err := client.FetchTransactions(context.Background(), api.TransactionQuery{})
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestCreateTransactionValidation(t *testing.T) {
	t.Parallel()
	_, client := loggedIn(t)
	_, err := client.CreateTransaction(context.Background(), ledger.NewTransaction{
		Type:   ledger.Expense,
		Amount: decimal.NewFromInt(10),
		Date:   "2024-03-05",
	})
	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Category is required", ve.Message)
	assert.Equal(t, "Category is required", api.UserMessage(err))
}

func TestCategoriesRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, client := loggedIn(t)

	cats, err := client.FetchCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 6)

	gift, err := client.CreateCategory(ctx, "Gifts", ledger.Income)
	require.NoError(t, err)
	assert.Equal(t, "Gifts", gift.Name)
	assert.Equal(t, ledger.Income, gift.Type)

	_, err = client.CreateCategory(ctx, "", ledger.Income)
	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid data", ve.Message)

	res, err := client.DeleteCategory(ctx, gift.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = client.DeleteCategory(ctx, gift.ID)
	var oe *api.OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "Category not found", api.UserMessage(err))
}

func TestChangePIN(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend, client := loggedIn(t)

	err := client.ChangePIN(ctx, "9999", "5678")
	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid current PIN", ve.Message)

	err = client.ChangePIN(ctx, fakeapi.DefaultPIN, "12a4")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "New PIN must be 4 digits", ve.Message)

	require.NoError(t, client.ChangePIN(ctx, fakeapi.DefaultPIN, "5678"))
	assert.Equal(t, "5678", backend.PIN())
}

func TestFetchDashboard(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	backend, client := loggedIn(t, fakeapi.WithClock(func() time.Time { return now }))
	rent, _ := backend.CategoryByName("Rent")
	backend.AddTransaction(ledger.Transaction{Type: ledger.Expense, Amount: decimal.NewFromInt(500), CategoryID: rent.ID, Date: "2024-03-09"})

	d, err := client.FetchDashboard(context.Background(), ledger.Daily)
	require.NoError(t, err)
	assert.Len(t, d.LineChart.Labels, 31)
	assert.True(t, decimal.NewFromInt(500).Equal(d.Summary.Expenses))
	assert.Equal(t, []string{"Rent"}, d.BarChart.Labels)
}

func TestNetworkErrorIsTyped(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := api.New(url, api.WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = client.FetchCategories(context.Background())
	var ne *api.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "fetch categories", ne.Op)
	assert.True(t, api.IsNetwork(err))
	assert.False(t, errors.Is(err, api.ErrSessionExpired))

	_, err = client.CheckAuth(context.Background())
	assert.True(t, api.IsNetwork(err), "transport failures still surface from CheckAuth")
}

func TestUndecodableBodyIsPlainError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL)
	require.NoError(t, err)
	_, err = client.FetchTransactions(context.Background(), api.TransactionQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
	assert.False(t, api.IsNetwork(err))
}

func TestRequestsCarryRequestID(t *testing.T) {
	t.Parallel()
	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"authenticated":false}`))
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL + "/")
	require.NoError(t, err)
	_, err = client.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.Len(t, <-seen, 36)
}

func TestLoginWithUnreadableBodyIsLogged(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`<html>ok</html>`))
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	client, err := api.New(srv.URL, api.WithLogger(logging.New(&buf, slog.LevelWarn)))
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "1234")
	require.NoError(t, err, "a 2xx login stands even when its body is unreadable")
	assert.Contains(t, buf.String(), "unreadable login response")
}
