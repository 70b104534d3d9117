package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/rjenterprise/poolhub/internal/domain/job"
)

// EncodePayload validates payload against t and marshals it.
func EncodePayload(t JobType, payload any) ([]byte, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}
	return b, nil
}

// NewRequest encodes payload into a job create request. An empty idempotency key means none.
func NewRequest(t JobType, payload any, idempotencyKey string) (job.CreateRequest, error) {
	b, err := EncodePayload(t, payload)
	if err != nil {
		return job.CreateRequest{}, err
	}
	return job.CreateRequest{
		Type:           string(t),
		Payload:        b,
		IdempotencyKey: idempotencyKey,
	}, nil
}

// DecodePayload unmarshals j.Payload into the typed payload struct for its type.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var out any
	switch t {
	case JobAccountWelcome:
		var p AccountWelcomePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	case JobPoolJoinConfirmation:
		var p PoolJoinConfirmationPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p
	}

	if err := ValidatePayload(t, out); err != nil {
		return nil, err
	}
	return out, nil
}
