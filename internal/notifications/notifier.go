package notifications

import "context"

type WelcomeInput struct {
	AccountID string
	Email     string
	Username  string
}

type JoinConfirmationInput struct {
	AccountID  string
	Email      string
	Username   string
	PoolID     string
	PoolNumber *int64
	PoolTitle  string
}

// Notifier delivers account-facing messages. Implementations must honour ctx.
type Notifier interface {
	SendWelcome(ctx context.Context, in WelcomeInput) error
	SendJoinConfirmation(ctx context.Context, in JoinConfirmationInput) error
}
