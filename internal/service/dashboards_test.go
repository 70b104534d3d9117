package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rjenterprise/poolhub/internal/cache"
	"github.com/rjenterprise/poolhub/internal/domain/bid"
	"github.com/rjenterprise/poolhub/internal/domain/transaction"
	"github.com/rjenterprise/poolhub/internal/repo/memory"
	"github.com/rjenterprise/poolhub/internal/service"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTrailingWindows_TodayIsLocalMidnight(t *testing.T) {
	wat := time.FixedZone("WAT", 60*60)
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)

	w := service.TrailingWindows(now, wat)

	require.True(t, w.Today.Equal(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)), "today = %s", w.Today)
	require.True(t, w.Weekly.Equal(now.Add(-7*24*time.Hour)))
	require.True(t, w.Monthly.Equal(now.Add(-30*24*time.Hour)))
	require.True(t, w.Now.Equal(now))
}

func newDashboards(store *memory.Store) *service.Dashboards {
	return service.NewDashboards(store.Accounts, store.Pools, store.Bids, store.Transactions).
		WithLocation(time.UTC).
		WithClock(func() time.Time { return testNow })
}

func insertTx(t *testing.T, store *memory.Store, user string, amount float64, typ transaction.Type, status transaction.Status, at time.Time) {
	t.Helper()
	_, err := store.Transactions.Insert(context.Background(), transaction.Transaction{
		Amount:        amount,
		User:          user,
		Type:          typ,
		Status:        status,
		RelatedEntity: transaction.Ref{Kind: transaction.RefPool, ID: primitive.NewObjectID().Hex()},
		CreatedAt:     at,
	})
	require.NoError(t, err)
}

func TestDashboards_AdminSumsRevenueWindows(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()

	insertTx(t, store, user, 10, transaction.TypePayment, transaction.StatusCompleted, testNow.Add(-time.Hour))
	insertTx(t, store, user, 20, transaction.TypePayment, transaction.StatusCompleted, testNow.Add(-3*24*time.Hour))
	insertTx(t, store, user, 40, transaction.TypePayment, transaction.StatusCompleted, testNow.Add(-20*24*time.Hour))
	insertTx(t, store, user, 80, transaction.TypePayment, transaction.StatusCompleted, testNow.Add(-60*24*time.Hour))
	// neither counts as revenue
	insertTx(t, store, user, 500, transaction.TypePayment, transaction.StatusPending, testNow.Add(-time.Hour))
	insertTx(t, store, user, 700, transaction.TypeRefund, transaction.StatusCompleted, testNow.Add(-time.Hour))
	// dated after now: outside every window
	insertTx(t, store, user, 900, transaction.TypePayment, transaction.StatusCompleted, testNow.Add(2*time.Hour))

	seedUnnumbered(t, store, "fresh", testNow.Add(-time.Hour))
	seedUnnumbered(t, store, "this week", testNow.Add(-2*24*time.Hour))
	seedUnnumbered(t, store, "older", testNow.Add(-45*24*time.Hour))
	seedUnnumbered(t, store, "future", testNow.Add(3*time.Hour))

	_, err := store.Bids.Create(ctx, bid.Bid{Amount: 5, Pool: primitive.NewObjectID().Hex(), Supplier: user, Status: bid.StatusSubmitted})
	require.NoError(t, err)

	out, err := newDashboards(store).Admin(ctx)
	require.NoError(t, err)

	require.EqualValues(t, 4, out.PoolCount)
	require.EqualValues(t, 1, out.BidCount)
	require.Zero(t, out.UserCount)
	require.Equal(t, 150.0, out.TotalRevenue)
	require.Equal(t, 10.0, out.Revenue.Today)
	require.Equal(t, 30.0, out.Revenue.Weekly)
	require.Equal(t, 70.0, out.Revenue.Monthly)
	require.EqualValues(t, 1, out.NewPools.Today)
	require.EqualValues(t, 2, out.NewPools.Weekly)
	require.EqualValues(t, 2, out.NewPools.Monthly)
}

func TestDashboards_AdminServedFromCache(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()

	svc := newDashboards(store).WithCache(cache.NewMemory(time.Minute), time.Minute)

	insertTx(t, store, user, 10, transaction.TypePayment, transaction.StatusCompleted, testNow.Add(-time.Hour))

	first, err := svc.Admin(ctx)
	require.NoError(t, err)
	require.Equal(t, 10.0, first.TotalRevenue)

	insertTx(t, store, user, 90, transaction.TypePayment, transaction.StatusCompleted, testNow.Add(-time.Hour))

	second, err := svc.Admin(ctx)
	require.NoError(t, err)
	require.Equal(t, 10.0, second.TotalRevenue)

	uncached, err := newDashboards(store).Admin(ctx)
	require.NoError(t, err)
	require.Equal(t, 100.0, uncached.TotalRevenue)
}

func TestDashboards_UserSeesOnlyOwnPools(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	pools := service.NewPools(store.Pools, store.Bids, store.Jobs).WithClock(func() time.Time { return testNow })

	me := primitive.NewObjectID().Hex()
	other := primitive.NewObjectID().Hex()

	mine, err := pools.Create(ctx, me, createReq("Rice", "bags"))
	require.NoError(t, err)
	_, err = pools.Create(ctx, other, createReq("Beans", "bags"))
	require.NoError(t, err)

	insertTx(t, store, me, 10, transaction.TypePayment, transaction.StatusCompleted, testNow)
	insertTx(t, store, other, 10, transaction.TypePayment, transaction.StatusCompleted, testNow)

	out, err := newDashboards(store).User(ctx, me)
	require.NoError(t, err)
	require.Len(t, out.Pools, 1)
	require.Equal(t, mine.ID, out.Pools[0].ID)
	require.Len(t, out.Transactions, 1)
	require.Equal(t, me, out.Transactions[0].User)
}

func TestDashboards_SupplierSeesOwnBids(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	supplier := primitive.NewObjectID().Hex()

	for _, who := range []string{supplier, primitive.NewObjectID().Hex()} {
		_, err := store.Bids.Create(ctx, bid.Bid{Amount: 5, Pool: primitive.NewObjectID().Hex(), Supplier: who, Status: bid.StatusSubmitted})
		require.NoError(t, err)
	}

	out, err := newDashboards(store).Supplier(ctx, supplier)
	require.NoError(t, err)
	require.Len(t, out.Bids, 1)
	require.Equal(t, supplier, out.Bids[0].Supplier)
	require.Empty(t, out.Transactions)
}
