package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrSimulatedOutage = errors.New("provider down (simulated)")

// LogNotifierOptions let local runs simulate a slow or failing provider.
type LogNotifierOptions struct {
	Delay time.Duration
	Fail  bool
}

// LogNotifier writes notifications to the structured log instead of a provider.
type LogNotifier struct {
	log  *slog.Logger
	opts LogNotifierOptions
}

func NewLogNotifier(log *slog.Logger, opts LogNotifierOptions) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log, opts: opts}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}
	n.log.InfoContext(ctx, "notification.welcome",
		"account_id", in.AccountID,
		"email", in.Email,
		"username", in.Username,
	)
	return nil
}

func (n *LogNotifier) SendJoinConfirmation(ctx context.Context, in JoinConfirmationInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	attrs := []any{
		"account_id", in.AccountID,
		"email", in.Email,
		"pool_id", in.PoolID,
		"pool_title", in.PoolTitle,
	}
	if in.PoolNumber != nil {
		attrs = append(attrs, "pool_number", *in.PoolNumber)
	}
	n.log.InfoContext(ctx, "notification.join_confirmation", attrs...)
	return nil
}

func (n *LogNotifier) simulate(ctx context.Context) error {
	if n.opts.Delay > 0 {
		select {
		case <-time.After(n.opts.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n.opts.Fail {
		return ErrSimulatedOutage
	}
	return nil
}
