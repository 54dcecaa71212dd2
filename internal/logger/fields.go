package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, carried on the context logger through the call chain.
const (
	FieldRequestID = "request_id"
	FieldSearchID  = "search_id"
	FieldComponent = "component"

	// FieldSubreddit is the subreddit a fetch or lookup was issued for.
	FieldSubreddit = "subreddit"

	// FieldPostID is the Reddit post being scored.
	FieldPostID = "post_id"
)

// Metric fields, attached per entry for aggregation.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
)
