package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rjenterprise/poolhub/internal/config"
	"github.com/rjenterprise/poolhub/internal/db"
	"github.com/rjenterprise/poolhub/internal/domain/job"
	"github.com/rjenterprise/poolhub/internal/observability"
	"github.com/rjenterprise/poolhub/internal/queue/worker"
	"github.com/rjenterprise/poolhub/internal/repo/memory"
	"github.com/rjenterprise/poolhub/internal/repo/mongodb"
	"github.com/rjenterprise/poolhub/internal/service"
)

// jobQueue is the job store seen from every side: services enqueue, the
// worker claims, admins inspect and retry.
type jobQueue interface {
	service.JobStore
	worker.Queue
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) error
}

type stores struct {
	accounts     service.AccountStore
	pools        service.PoolStore
	bids         service.BidStore
	transactions service.TransactionStore
	jobs         jobQueue

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom) (stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		m := memory.New()
		return stores{
			accounts:     m.Accounts,
			pools:        m.Pools,
			bids:         m.Bids,
			transactions: m.Transactions,
			jobs:         m.Jobs,
			close:        func(context.Context) error { return nil },
		}, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := db.Connect(cctx, cfg.MongoURI)
	if err != nil {
		return stores{}, fmt.Errorf("connect mongo: %w", err)
	}

	database := client.Database(cfg.MongoDatabase)
	if err := mongodb.EnsureIndexes(cctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return stores{}, err
	}

	m := mongodb.New(database, prom)
	return stores{
		accounts:     m.Accounts,
		pools:        m.Pools,
		bids:         m.Bids,
		transactions: m.Transactions,
		jobs:         m.Jobs,
		ping:         db.Pinger{Client: client}.Ping,
		close:        client.Disconnect,
	}, nil
}
