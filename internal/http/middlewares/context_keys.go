package middlewares

const (
	CtxRequestID = "request_id"
	CtxCaller    = "auth.caller"
)
