package logkey

// Common keys for structured logging so grep/dashboards see one spelling.
const (
	TraceID = "trace_id"
	OrderID = "order_id"
	UserID  = "user_id"
	Error   = "error"
)
