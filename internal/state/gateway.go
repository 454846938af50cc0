package state

import (
	"context"

	"github.com/jask/fintrack/internal/api"
	"github.com/jask/fintrack/internal/ledger"
)

// Gateway is the backend as seen by the controller. *api.Client implements it.
//
//go:generate mockgen -destination=mocks/mock_gateway.go -source=gateway.go Gateway
type Gateway interface {
	Login(ctx context.Context, pin string) (api.Session, error)
	CheckAuth(ctx context.Context) (api.AuthStatus, error)
	Logout(ctx context.Context) error
	FetchDashboard(ctx context.Context, period ledger.Period) (ledger.Dashboard, error)
	FetchTransactions(ctx context.Context, q api.TransactionQuery) ([]ledger.Transaction, error)
	CreateTransaction(ctx context.Context, in ledger.NewTransaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (api.DeleteResult, error)
	FetchCategories(ctx context.Context) ([]ledger.Category, error)
	CreateCategory(ctx context.Context, name string, typ ledger.TxType) (ledger.Category, error)
	DeleteCategory(ctx context.Context, id int64) (api.DeleteResult, error)
	ChangePIN(ctx context.Context, current, next string) error
}

var _ Gateway = (*api.Client)(nil)
