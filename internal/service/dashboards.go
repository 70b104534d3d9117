package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rjenterprise/poolhub/internal/cache"
	"github.com/rjenterprise/poolhub/internal/domain/bid"
	"github.com/rjenterprise/poolhub/internal/domain/pool"
	"github.com/rjenterprise/poolhub/internal/domain/transaction"
	"github.com/rjenterprise/poolhub/internal/utils"
)

type UserDashboard struct {
	Pools        []pool.Pool               `json:"pools"`
	Transactions []transaction.Transaction `json:"transactions"`
}

type SupplierDashboard struct {
	Bids         []bid.Bid                 `json:"bids"`
	Transactions []transaction.Transaction `json:"transactions"`
}

type RevenueWindows struct {
	Today   float64 `json:"today"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

type CountWindows struct {
	Today   int64 `json:"today"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
}

type AdminDashboard struct {
	UserCount    int64          `json:"userCount"`
	PoolCount    int64          `json:"poolCount"`
	BidCount     int64          `json:"bidCount"`
	TotalRevenue float64        `json:"totalRevenue"`
	Revenue      RevenueWindows `json:"revenue"`
	NewPools     CountWindows   `json:"newPools"`
	GeneratedAt  time.Time      `json:"generatedAt"`
}

type Dashboards struct {
	accounts AccountStore
	pools    PoolStore
	bids     BidStore
	txs      TransactionStore
	cache    cache.Store
	ttl      time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewDashboards(accounts AccountStore, pools PoolStore, bids BidStore, txs TransactionStore) *Dashboards {
	return &Dashboards{
		accounts: accounts,
		pools:    pools,
		bids:     bids,
		txs:      txs,
		loc:      time.Local,
		now:      time.Now,
	}
}

// WithCache caches the admin metrics for ttl. A zero ttl disables caching.
func (s *Dashboards) WithCache(c cache.Store, ttl time.Duration) *Dashboards {
	s.cache = c
	s.ttl = ttl
	return s
}

func (s *Dashboards) WithLocation(loc *time.Location) *Dashboards {
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *Dashboards) WithClock(now func() time.Time) *Dashboards {
	s.now = now
	return s
}

func (s *Dashboards) User(ctx context.Context, accountID string) (UserDashboard, error) {
	pools, err := s.pools.List(ctx, pool.ListFilter{CreatorID: accountID})
	if err != nil {
		return UserDashboard{}, fmt.Errorf("list own pools: %w", err)
	}

	txs, err := s.txs.ListByAccount(ctx, accountID)
	if err != nil {
		return UserDashboard{}, fmt.Errorf("list transactions: %w", err)
	}

	return UserDashboard{Pools: pools, Transactions: txs}, nil
}

func (s *Dashboards) Supplier(ctx context.Context, accountID string) (SupplierDashboard, error) {
	bids, err := s.bids.ListBySupplier(ctx, accountID)
	if err != nil {
		return SupplierDashboard{}, fmt.Errorf("list bids: %w", err)
	}

	txs, err := s.txs.ListByAccount(ctx, accountID)
	if err != nil {
		return SupplierDashboard{}, fmt.Errorf("list transactions: %w", err)
	}

	return SupplierDashboard{Bids: bids, Transactions: txs}, nil
}

func (s *Dashboards) Admin(ctx context.Context) (AdminDashboard, error) {
	key := utils.BuildAdminDashboardCacheKey(s.loc)

	if cached, ok := s.cached(ctx, key); ok {
		return cached, nil
	}

	out, err := s.computeAdmin(ctx, s.now())
	if err != nil {
		return AdminDashboard{}, err
	}

	s.store(ctx, key, out)
	return out, nil
}

func (s *Dashboards) computeAdmin(ctx context.Context, now time.Time) (AdminDashboard, error) {
	var (
		out AdminDashboard
		err error
	)
	w := TrailingWindows(now, s.loc)

	if out.UserCount, err = s.accounts.Count(ctx); err != nil {
		return AdminDashboard{}, fmt.Errorf("count accounts: %w", err)
	}
	if out.PoolCount, err = s.pools.Count(ctx); err != nil {
		return AdminDashboard{}, fmt.Errorf("count pools: %w", err)
	}
	if out.BidCount, err = s.bids.Count(ctx); err != nil {
		return AdminDashboard{}, fmt.Errorf("count bids: %w", err)
	}
	if out.TotalRevenue, err = s.txs.SumAmount(ctx, transaction.Revenue(time.Time{}, w.Now)); err != nil {
		return AdminDashboard{}, fmt.Errorf("sum revenue: %w", err)
	}

	sums := []struct {
		since time.Time
		dst   *float64
	}{
		{w.Today, &out.Revenue.Today},
		{w.Weekly, &out.Revenue.Weekly},
		{w.Monthly, &out.Revenue.Monthly},
	}
	for _, r := range sums {
		if *r.dst, err = s.txs.SumAmount(ctx, transaction.Revenue(r.since, w.Now)); err != nil {
			return AdminDashboard{}, fmt.Errorf("sum revenue since %s: %w", r.since.Format(time.RFC3339), err)
		}
	}

	counts := []struct {
		since time.Time
		dst   *int64
	}{
		{w.Today, &out.NewPools.Today},
		{w.Weekly, &out.NewPools.Weekly},
		{w.Monthly, &out.NewPools.Monthly},
	}
	for _, c := range counts {
		if *c.dst, err = s.pools.CountCreatedBetween(ctx, c.since, w.Now); err != nil {
			return AdminDashboard{}, fmt.Errorf("count pools since %s: %w", c.since.Format(time.RFC3339), err)
		}
	}

	out.GeneratedAt = now.UTC()
	return out, nil
}

// cache failures only cost a recompute
func (s *Dashboards) cached(ctx context.Context, key string) (AdminDashboard, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return AdminDashboard{}, false
	}

	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Default().WarnContext(ctx, "dashboard_cache_get_failed", "err", err)
		return AdminDashboard{}, false
	}
	if !ok {
		return AdminDashboard{}, false
	}

	var out AdminDashboard
	if err := json.Unmarshal(b, &out); err != nil {
		slog.Default().WarnContext(ctx, "dashboard_cache_decode_failed", "err", err)
		return AdminDashboard{}, false
	}
	return out, true
}

func (s *Dashboards) store(ctx context.Context, key string, v AdminDashboard) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		slog.Default().WarnContext(ctx, "dashboard_cache_set_failed", "err", err)
	}
}
