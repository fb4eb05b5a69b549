package domain

const (
	TraceIDCtxKey = "wbc-traceId"
)

const (
	TraceIDHeader = "trace-id"
	MaxAgeHeader  = "wbc-max-age"
)
