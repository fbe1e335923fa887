// Package tracing collects the spans produced during a single invocation,
// bounding memory use and truncating oversized input/output text before it
// is ever serialized for transport.
package tracing

import (
	"time"

	"github.com/google/uuid"

	"github.com/InvokeLens/invokelens-sdk/internal/cost"
)

// MaxSpansPerTrace bounds the number of spans retained per invocation.
// Spans created beyond this limit are returned detached: they can still be
// used by the caller, but are not recorded in the trace and never appear
// in the emitted telemetry event.
const MaxSpansPerTrace = 100

// MaxIOLength bounds the length of a span's recorded Input/Output text.
// Longer values are truncated with a trailing "...[truncated]" marker.
const MaxIOLength = 2000

const truncatedSuffix = "...[truncated]"

// SpanType classifies the kind of step a span represents.
type SpanType string

const (
	SpanLLM       SpanType = "llm"
	SpanTool      SpanType = "tool"
	SpanChain     SpanType = "chain"
	SpanRetrieval SpanType = "retrieval"
	SpanGuardrail SpanType = "guardrail"
	SpanCustom    SpanType = "custom"
)

// SpanStatus is the terminal status of a span.
type SpanStatus string

const (
	SpanOK    SpanStatus = "OK"
	SpanError SpanStatus = "ERROR"
)

// Span represents one step in an agent invocation.
type Span struct {
	SpanID       string   `json:"span_id"`
	ParentSpanID string   `json:"parent_span_id,omitempty"`
	SpanType     SpanType `json:"span_type"`
	Name         string   `json:"name"`
	StartedAt    string   `json:"started_at"`
	EndedAt      string   `json:"ended_at,omitempty"`
	DurationMs   int64    `json:"duration_ms"`

	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`

	Status SpanStatus `json:"status"`
	Error  string     `json:"error,omitempty"`

	ModelID          string  `json:"model_id,omitempty"`
	InputTokens      int     `json:"input_tokens"`
	OutputTokens     int     `json:"output_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

func newSpan(name string, spanType SpanType, parentID, input, modelID string) *Span {
	return &Span{
		SpanID:       uuid.NewString(),
		ParentSpanID: parentID,
		SpanType:     spanType,
		Name:         name,
		StartedAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Input:        truncate(input),
		ModelID:      modelID,
		Status:       SpanOK,
	}
}

// truncate caps value to MaxIOLength, appending a truncation marker when
// it was cut short.
func truncate(value string) string {
	if len(value) <= MaxIOLength {
		return value
	}
	return value[:MaxIOLength-len(truncatedSuffix)] + truncatedSuffix
}

// finish finalizes the span with its outcome, tokens, and model, computing
// duration and best-effort cost.
func (s *Span) finish(output string, status SpanStatus, errMsg string, inputTokens, outputTokens int, modelID string) {
	s.EndedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.Output = truncate(output)
	s.Status = status
	s.Error = errMsg
	s.InputTokens = inputTokens
	s.OutputTokens = outputTokens
	if modelID != "" {
		s.ModelID = modelID
	}
	s.DurationMs = wallClockDurationMs(s.StartedAt, s.EndedAt)
	if s.ModelID != "" && (inputTokens != 0 || outputTokens != 0) {
		s.EstimatedCostUSD = cost.Estimate(s.ModelID, inputTokens, outputTokens)
	}
}

// wallClockDurationMs derives a span's duration from its RFC3339Nano
// started/ended timestamps rather than a monotonic clock reading: unlike
// the telemetry event's own duration_ms (which is monotonic), span
// durations are defined as ended_at - started_at on the wall clock. A
// parse failure or a negative result (possible under clock adjustment)
// yields 0 rather than a misleading value.
func wallClockDurationMs(startedAt, endedAt string) int64 {
	start, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return 0
	}
	end, err := time.Parse(time.RFC3339Nano, endedAt)
	if err != nil {
		return 0
	}
	d := end.Sub(start).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}
