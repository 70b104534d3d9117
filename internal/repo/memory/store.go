package memory

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store bundles the in-process repositories used by STORE_DRIVER=memory and by tests.
type Store struct {
	Accounts     *AccountsRepo
	Pools        *PoolsRepo
	Bids         *BidsRepo
	Transactions *TransactionsRepo
	Jobs         *JobsRepo
}

func New() *Store {
	return &Store{
		Accounts:     NewAccountsRepo(),
		Pools:        NewPoolsRepo(),
		Bids:         NewBidsRepo(),
		Transactions: NewTransactionsRepo(),
		Jobs:         NewJobsRepo(),
	}
}

// ids look like the document store's so handlers validate them the same way
func newID() string {
	return primitive.NewObjectID().Hex()
}

func validID(id string) bool {
	return primitive.IsValidObjectID(id)
}
