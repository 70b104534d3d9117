package bid

import (
	"errors"
	"time"
)

type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
)

var ErrInvalidAmount = errors.New("bid amount must be positive")

type Bid struct {
	ID        string    `json:"_id"`
	Amount    float64   `json:"amount"`
	Pool      string    `json:"pool"`
	Supplier  string    `json:"supplier"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func New(poolID, supplierID string, amount float64, now time.Time) (Bid, error) {
	if amount <= 0 {
		return Bid{}, ErrInvalidAmount
	}
	now = now.UTC()
	return Bid{
		Amount:    amount,
		Pool:      poolID,
		Supplier:  supplierID,
		Status:    StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
