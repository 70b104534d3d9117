package jobs

// AccountWelcomePayload is enqueued after a successful registration.
type AccountWelcomePayload struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	RequestID string `json:"requestId,omitempty"`
}

// PoolJoinConfirmationPayload is enqueued after an account joins a pool.
// Details are copied at enqueue time so the notifier never reads the store.
type PoolJoinConfirmationPayload struct {
	PoolID     string `json:"poolId"`
	PoolNumber *int64 `json:"poolNumber,omitempty"`
	Title      string `json:"title"`
	AccountID  string `json:"accountId"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	RequestID  string `json:"requestId,omitempty"`
}
