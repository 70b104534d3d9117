package transaction

import (
	"errors"
	"time"
)

type Type string

const (
	TypePayment Type = "payment"
	TypePayout  Type = "payout"
	TypeRefund  Type = "refund"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RefKind names the collection a transaction's related entity lives in.
type RefKind string

const (
	RefPool RefKind = "Pool"
	RefBid  RefKind = "Bid"
)

var ErrInvalidRef = errors.New("related entity must be a Pool or a Bid")

// Ref is the tagged reference to the pool or bid a transaction settles.
type Ref struct {
	Kind RefKind `json:"kind"`
	ID   string  `json:"id"`
}

func (r Ref) Validate() error {
	if r.ID == "" {
		return ErrInvalidRef
	}
	switch r.Kind {
	case RefPool, RefBid:
		return nil
	default:
		return ErrInvalidRef
	}
}

type Transaction struct {
	ID            string    `json:"_id"`
	Amount        float64   `json:"amount"`
	User          string    `json:"user"`
	Type          Type      `json:"type"`
	Status        Status    `json:"status"`
	RelatedEntity Ref       `json:"relatedEntity"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SumFilter selects the transactions whose amounts are summed. Zero fields match everything.
// Since and Until are both inclusive.
type SumFilter struct {
	Type   Type
	Status Status
	Since  time.Time
	Until  time.Time
}

func (f SumFilter) Matches(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && t.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && t.CreatedAt.After(f.Until) {
		return false
	}
	return true
}

// Revenue is the filter for completed payments created between since and until.
func Revenue(since, until time.Time) SumFilter {
	return SumFilter{Type: TypePayment, Status: StatusCompleted, Since: since, Until: until}
}
