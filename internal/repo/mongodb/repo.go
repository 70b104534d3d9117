package mongodb

import (
	"errors"

	"github.com/rjenterprise/poolhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names match the ones the existing data set already uses.
const (
	CollAccounts     = "users"
	CollPools        = "pools"
	CollBids         = "bids"
	CollTransactions = "transactions"
	CollJobs         = "jobs"
)

var errInvalidObjectID = errors.New("invalid object id")

// Store bundles the document-store repositories.
type Store struct {
	Accounts     *AccountsRepo
	Pools        *PoolsRepo
	Bids         *BidsRepo
	Transactions *TransactionsRepo
	Jobs         *JobsRepo
}

func New(db *mongo.Database, prom *observability.Prom) *Store {
	return &Store{
		Accounts:     NewAccountsRepo(db, prom),
		Pools:        NewPoolsRepo(db, prom),
		Bids:         NewBidsRepo(db, prom),
		Transactions: NewTransactionsRepo(db, prom),
		Jobs:         NewJobsRepo(db, prom),
	}
}

type base struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func (b base) observe(op string, fn func() error) error {
	if b.prom != nil {
		return b.prom.ObserveDB(op, fn)
	}
	return fn()
}

func oid(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errInvalidObjectID
	}
	return id, nil
}

func hexOrEmpty(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}
