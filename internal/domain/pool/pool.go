package pool

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCompleted Status = "completed"
)

var (
	ErrNotFound      = errors.New("pool not found")
	ErrAlreadyMember = errors.New("account is already a member of this pool")
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidID     = errors.New("invalid pool id")
)

type Pool struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	ClosingDate time.Time `json:"closingDate"`
	Location    string    `json:"location"`
	Creator     string    `json:"creator"`
	Members     []string  `json:"members"`
	Status      Status    `json:"status"`

	// nil until assigned; legacy listings are numbered on the next list or sweep
	PoolNumber *int64    `json:"poolNumber"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (p Pool) HasMember(accountID string) bool {
	for _, m := range p.Members {
		if m == accountID {
			return true
		}
	}
	return false
}

// CreateRequest is the create payload. Presence is checked by Validate rather than
// binding tags so a missing field yields one uniform message.
type CreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	ClosingDate string  `json:"closingDate"`
	Location    string  `json:"location"`
}

// Draft is a validated create request.
type Draft struct {
	Title       string
	Description string
	Amount      float64
	ClosingDate time.Time
	Location    string
}

var closingDateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseClosingDate accepts RFC 3339 timestamps and the bare dates a date input produces.
func ParseClosingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range closingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrMissingFields
}

func (r CreateRequest) Validate() (Draft, error) {
	d := Draft{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Amount:      r.Amount,
		Location:    strings.TrimSpace(r.Location),
	}
	if d.Title == "" || d.Description == "" || d.Location == "" || d.Amount <= 0 {
		return Draft{}, ErrMissingFields
	}

	closing, err := ParseClosingDate(r.ClosingDate)
	if err != nil {
		return Draft{}, err
	}
	d.ClosingDate = closing

	return d, nil
}

// New builds an unsaved, unnumbered pool owned by creatorID.
func New(d Draft, creatorID string, now time.Time) Pool {
	now = now.UTC()
	return Pool{
		Title:       d.Title,
		Description: d.Description,
		Amount:      d.Amount,
		ClosingDate: d.ClosingDate,
		Location:    d.Location,
		Creator:     creatorID,
		Members:     []string{},
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type ListFilter struct {
	Search    string
	CreatorID string
}

// MaintenanceResult counts what one purge + backfill pass touched.
type MaintenanceResult struct {
	Purged   int64 `json:"purged"`
	Numbered int64 `json:"numbered"`
}

type BidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}
