package middlewares

// gin context keys shared by the middlewares and handlers
const (
	CtxRequestID = "request_id"
	CtxAccount   = "auth.account"
)
