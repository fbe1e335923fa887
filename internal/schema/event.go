// Package schema defines the wire format of telemetry events emitted by
// the SDK to the ingestion endpoint.
package schema

import "github.com/google/uuid"

// EventVersion is the schema version stamped onto every emitted event.
const EventVersion = "1.0"

// EventType enumerates the lifecycle points an event can represent.
type EventType string

const (
	EventInvocationStarted   EventType = "invocation.started"
	EventInvocationCompleted EventType = "invocation.completed"
	EventInvocationFailed    EventType = "invocation.failed"
)

// Status is the terminal outcome of an invocation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusTimeout Status = "TIMEOUT"
)

// TelemetryEvent is the canonical event emitted by the SDK for a single
// invocation. Field names are snake_case on the wire to match the
// ingestion endpoint's existing schema.
type TelemetryEvent struct {
	EventID      string    `json:"event_id"`
	EventType    EventType `json:"event_type"`
	EventVersion string    `json:"event_version"`
	Timestamp    string    `json:"timestamp"`

	APIKey       string `json:"api_key"`
	AgentID      string `json:"agent_id"`
	AgentName    string `json:"agent_name,omitempty"`
	InvocationID string `json:"invocation_id"`
	SessionID    string `json:"session_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`

	ModelID string `json:"model_id"`
	Region  string `json:"region"`

	StartedAt  string `json:"started_at"`
	EndedAt    string `json:"ended_at,omitempty"`
	DurationMs int64  `json:"duration_ms"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	EstimatedCostUSD float64 `json:"estimated_cost_usd"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorType    string `json:"error_type,omitempty"`

	ToolsCalled []string `json:"tools_called"`

	PromptSummary     string `json:"prompt_summary,omitempty"`
	ResponseSummary   string `json:"response_summary,omitempty"`
	PromptFingerprint any    `json:"prompt_fingerprint,omitempty"`

	Spans []any `json:"spans"`

	Tags       map[string]string `json:"tags,omitempty"`
	SDKVersion string            `json:"sdk_version,omitempty"`
}

// NewEventID generates a new random event identifier.
func NewEventID() string {
	return uuid.NewString()
}
