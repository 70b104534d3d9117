package jobs

import (
	"errors"
	"testing"

	"github.com/rjenterprise/poolhub/internal/domain/job"
)

func TestEncodeDecode_JoinConfirmation(t *testing.T) {
	n := int64(7)
	payload := PoolJoinConfirmationPayload{
		PoolID:     "pool-1",
		PoolNumber: &n,
		Title:      "Rice",
		AccountID:  "acc-1",
		Email:      "a@example.com",
	}

	req, err := NewRequest(JobPoolJoinConfirmation, payload, "join:pool-1:acc-1")
	if err != nil {
		t.Fatalf("NewRequest error: %v", err)
	}

	j := job.New(req)
	if j.IdempotencyKey == nil || *j.IdempotencyKey != "join:pool-1:acc-1" {
		t.Fatalf("idempotency key not carried: %v", j.IdempotencyKey)
	}

	decoded, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(PoolJoinConfirmationPayload)
	if !ok {
		t.Fatalf("expected PoolJoinConfirmationPayload, got %T", decoded)
	}
	if p.PoolID != "pool-1" || p.PoolNumber == nil || *p.PoolNumber != 7 {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobAccountWelcome, PoolJoinConfirmationPayload{
		PoolID:    "p1",
		AccountID: "a1",
		Email:     "a@example.com",
	})
	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestValidatePayload_RequiredIDs(t *testing.T) {
	if err := ValidatePayload(JobAccountWelcome, AccountWelcomePayload{Email: "a@example.com"}); !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
	if err := ValidatePayload(JobAccountWelcome, &AccountWelcomePayload{AccountID: "a", Email: "a@example.com"}); err != nil {
		t.Fatalf("pointer payload should validate: %v", err)
	}
}

func TestDecodePayload_UnknownType(t *testing.T) {
	_, err := DecodePayload(job.Job{Type: "event.publish", Payload: []byte(`{}`)})
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestDecodePayload_BadJSON(t *testing.T) {
	_, err := DecodePayload(job.Job{Type: string(JobAccountWelcome), Payload: []byte(`{`)})
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
}
