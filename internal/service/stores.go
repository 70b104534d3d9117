package service

import (
	"context"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/account"
	"github.com/rjenterprise/poolhub/internal/domain/bid"
	"github.com/rjenterprise/poolhub/internal/domain/job"
	"github.com/rjenterprise/poolhub/internal/domain/pool"
	"github.com/rjenterprise/poolhub/internal/domain/transaction"
)

// AccountStore persists accounts. Create reports account.ErrEmailTaken or
// account.ErrUsernameTaken when a unique field collides.
type AccountStore interface {
	Create(ctx context.Context, a account.Account) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	GetByID(ctx context.Context, id string) (account.Account, error)
	// UpdatePasswordHash swaps the credential only if it still equals oldValue.
	UpdatePasswordHash(ctx context.Context, id, oldValue, newHash string) error
	UpdateRole(ctx context.Context, id string, role account.Role) (account.Account, error)
	Count(ctx context.Context) (int64, error)
}

type PoolStore interface {
	Create(ctx context.Context, p pool.Pool) (pool.Pool, error)
	GetByID(ctx context.Context, id string) (pool.Pool, error)
	// List returns matches ordered by poolNumber desc, then createdAt desc.
	List(ctx context.Context, f pool.ListFilter) ([]pool.Pool, error)
	// AddMember appends accountID in a single guarded update; it never produces a duplicate.
	AddMember(ctx context.Context, poolID, accountID string) (pool.Pool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// MaxPoolNumber reports the largest numeric poolNumber; ok is false when none is assigned.
	MaxPoolNumber(ctx context.Context) (max int64, ok bool, err error)
	Count(ctx context.Context) (int64, error)
	CountCreatedBetween(ctx context.Context, since, until time.Time) (int64, error)
	// ListUnnumbered returns ids of listings with a missing or non-numeric poolNumber, oldest first.
	ListUnnumbered(ctx context.Context) ([]string, error)
	// AssignPoolNumber sets n only while the listing is still unnumbered.
	AssignPoolNumber(ctx context.Context, id string, n int64) (bool, error)
}

type BidStore interface {
	Create(ctx context.Context, b bid.Bid) (bid.Bid, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]bid.Bid, error)
	Count(ctx context.Context) (int64, error)
}

type TransactionStore interface {
	ListByAccount(ctx context.Context, accountID string) ([]transaction.Transaction, error)
	SumAmount(ctx context.Context, f transaction.SumFilter) (float64, error)
}

type JobStore interface {
	Create(ctx context.Context, j job.Job) (job.Job, error)
}
