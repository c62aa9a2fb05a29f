package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields. These are injected into the context at the
// edge (request middleware, auth middleware) and propagate through the
// call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldUserID is the authenticated user ID
	FieldUserID = "user_id"

	// FieldGenerationID is the prompt generation record ID
	FieldGenerationID = "generation_id"
)

// Standard metric fields, attached per log entry for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldStatus is the operation or HTTP status
	FieldStatus = "status"

	// FieldSize is the data size in bytes
	FieldSize = "size"
)
