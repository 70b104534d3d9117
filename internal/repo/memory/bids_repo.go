package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rjenterprise/poolhub/internal/domain/bid"
)

type BidsRepo struct {
	mu    sync.RWMutex
	items []bid.Bid
}

func NewBidsRepo() *BidsRepo {
	return &BidsRepo{}
}

func (r *BidsRepo) Create(_ context.Context, b bid.Bid) (bid.Bid, error) {
	if b.ID == "" {
		b.ID = newID()
	}
	r.mu.Lock()
	r.items = append(r.items, b)
	r.mu.Unlock()
	return b, nil
}

func (r *BidsRepo) ListBySupplier(_ context.Context, supplierID string) ([]bid.Bid, error) {
	r.mu.RLock()
	out := make([]bid.Bid, 0)
	for _, b := range r.items {
		if b.Supplier == supplierID {
			out = append(out, b)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *BidsRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}
