package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/transaction"
)

// TransactionsRepo is read-mostly; Insert exists for seeding and tests since
// no API operation writes transactions.
type TransactionsRepo struct {
	mu    sync.RWMutex
	items []transaction.Transaction
}

func NewTransactionsRepo() *TransactionsRepo {
	return &TransactionsRepo{}
}

func (r *TransactionsRepo) Insert(_ context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	if err := t.RelatedEntity.Validate(); err != nil {
		return transaction.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Status == "" {
		t.Status = transaction.StatusPending
	}

	r.mu.Lock()
	r.items = append(r.items, t)
	r.mu.Unlock()
	return t, nil
}

func (r *TransactionsRepo) ListByAccount(_ context.Context, accountID string) ([]transaction.Transaction, error) {
	r.mu.RLock()
	out := make([]transaction.Transaction, 0)
	for _, t := range r.items {
		if t.User == accountID {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *TransactionsRepo) SumAmount(_ context.Context, f transaction.SumFilter) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, t := range r.items {
		if f.Matches(t) {
			total += t.Amount
		}
	}
	return total, nil
}
