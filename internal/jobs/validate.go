package jobs

import "strings"

// ValidatePayload checks the payload matches the job type and carries the ids the handler needs.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch t {
	case JobAccountWelcome:
		var p AccountWelcomePayload
		switch v := payload.(type) {
		case AccountWelcomePayload:
			p = v
		case *AccountWelcomePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.AccountID) || blank(p.Email) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobPoolJoinConfirmation:
		var p PoolJoinConfirmationPayload
		switch v := payload.(type) {
		case PoolJoinConfirmationPayload:
			p = v
		case *PoolJoinConfirmationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.PoolID) || blank(p.AccountID) || blank(p.Email) {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
