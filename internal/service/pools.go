package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/account"
	"github.com/rjenterprise/poolhub/internal/domain/bid"
	"github.com/rjenterprise/poolhub/internal/domain/pool"
	"github.com/rjenterprise/poolhub/internal/jobs"
	"github.com/rjenterprise/poolhub/internal/observability"
)

type Pools struct {
	store PoolStore
	bids  BidStore
	jobs  JobStore
	prom  *observability.Prom
	now   func() time.Time
}

func NewPools(store PoolStore, bids BidStore, jobStore JobStore) *Pools {
	return &Pools{
		store: store,
		bids:  bids,
		jobs:  jobStore,
		now:   time.Now,
	}
}

func (s *Pools) WithMetrics(p *observability.Prom) *Pools {
	s.prom = p
	return s
}

func (s *Pools) WithClock(now func() time.Time) *Pools {
	s.now = now
	return s
}

// Create validates the draft and stores it with the next pool number.
// Two concurrent creates can read the same maximum and collide; the store has
// no counter primitive in use and the collision is tolerated.
func (s *Pools) Create(ctx context.Context, creatorID string, req pool.CreateRequest) (pool.Pool, error) {
	d, err := req.Validate()
	if err != nil {
		return pool.Pool{}, err
	}

	n, err := s.nextPoolNumber(ctx)
	if err != nil {
		return pool.Pool{}, err
	}

	p := pool.New(d, creatorID, s.now())
	p.PoolNumber = &n

	return s.store.Create(ctx, p)
}

// nextPoolNumber is max+1, or count+1 when nothing has been numbered yet.
func (s *Pools) nextPoolNumber(ctx context.Context) (int64, error) {
	max, ok, err := s.store.MaxPoolNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("read max pool number: %w", err)
	}
	if ok {
		return max + 1, nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pools: %w", err)
	}
	return count + 1, nil
}

// List purges expired listings and numbers legacy ones before searching.
func (s *Pools) List(ctx context.Context, search string) ([]pool.Pool, error) {
	if _, err := s.Maintain(ctx); err != nil {
		return nil, err
	}

	return s.store.List(ctx, pool.ListFilter{Search: strings.TrimSpace(search)})
}

func (s *Pools) Get(ctx context.Context, id string) (pool.Pool, error) {
	return s.store.GetByID(ctx, id)
}

// Maintain hard-deletes listings past their closing date, then backfills numbers.
func (s *Pools) Maintain(ctx context.Context) (pool.MaintenanceResult, error) {
	var res pool.MaintenanceResult

	purged, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return res, fmt.Errorf("delete expired pools: %w", err)
	}
	res.Purged = purged

	numbered, err := s.backfill(ctx)
	res.Numbered = numbered
	s.prom.ObserveMaintenance(res.Purged, res.Numbered)
	if err != nil {
		return res, fmt.Errorf("backfill pool numbers: %w", err)
	}

	if res.Purged > 0 || res.Numbered > 0 {
		slog.Default().InfoContext(ctx, "pool_maintenance", "purged", res.Purged, "numbered", res.Numbered)
	}
	return res, nil
}

// backfill numbers unnumbered listings oldest first, continuing from the current maximum.
// Each write is guarded on the listing still being unnumbered, so re-runs never renumber.
func (s *Pools) backfill(ctx context.Context) (int64, error) {
	ids, err := s.store.ListUnnumbered(ctx)
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	max, ok, err := s.store.MaxPoolNumber(ctx)
	if err != nil {
		return 0, err
	}
	next := int64(1)
	if ok {
		next = max + 1
	}

	var assigned int64
	for _, id := range ids {
		done, err := s.store.AssignPoolNumber(ctx, id, next)
		if err != nil {
			return assigned, err
		}
		if done {
			next++
			assigned++
		}
	}
	return assigned, nil
}

// Join adds the account to the pool's member set.
func (s *Pools) Join(ctx context.Context, poolID string, who account.Account) (pool.Pool, error) {
	p, err := s.store.AddMember(ctx, poolID, who.ID)
	if err != nil {
		return pool.Pool{}, err
	}

	enqueue(ctx, s.jobs, jobs.JobPoolJoinConfirmation, jobs.PoolJoinConfirmationPayload{
		PoolID:     p.ID,
		PoolNumber: p.PoolNumber,
		Title:      p.Title,
		AccountID:  who.ID,
		Email:      who.Email,
		Username:   who.Username,
		RequestID:  requestID(ctx),
	}, "join:"+p.ID+":"+who.ID)

	return p, nil
}

// SubmitBid records a supplier's offer against an existing pool.
func (s *Pools) SubmitBid(ctx context.Context, poolID string, supplier account.Account, amount float64) (bid.Bid, error) {
	p, err := s.store.GetByID(ctx, poolID)
	if err != nil {
		return bid.Bid{}, err
	}

	b, err := bid.New(p.ID, supplier.ID, amount, s.now())
	if err != nil {
		return bid.Bid{}, err
	}

	return s.bids.Create(ctx, b)
}
