package invokelens

import (
	"fmt"
	"time"

	"github.com/InvokeLens/invokelens-sdk/internal/fingerprint"
	ilog "github.com/InvokeLens/invokelens-sdk/internal/log"
	"github.com/InvokeLens/invokelens-sdk/internal/schema"
	"github.com/InvokeLens/invokelens-sdk/internal/status"
	"github.com/InvokeLens/invokelens-sdk/tracing"
)

// Arg is one named argument passed to a wrapped invocation. Parameter
// names cannot be recovered from a compiled function value, so call sites
// supply an explicit, ordered list of named arguments; the names drive
// prompt detection and session/user attribution.
type Arg struct {
	Name  string
	Value any
}

// Args is the ordered argument list passed to a wrapped function.
type Args []Arg

var promptParamNames = []string{"prompt", "input_text", "query", "message"}

// stringNamed returns the value of the first string-valued argument with
// the given name, or "" if there is none.
func (a Args) stringNamed(name string) string {
	for _, arg := range a {
		if arg.Name == name {
			if s, ok := arg.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// promptText extracts a best-effort prompt string from args: first by
// checking the conventional prompt-like parameter names in order, then by
// falling back to the first string-valued argument.
func (a Args) promptText() string {
	for _, name := range promptParamNames {
		if s := a.stringNamed(name); s != "" {
			return s
		}
	}
	for _, arg := range a {
		if s, ok := arg.Value.(string); ok {
			return s
		}
	}
	return ""
}

const maxErrorMessageLength = 500
const maxPromptSummaryLength = 500

func truncateTo(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Func is an invocation wrapped by Observe: it receives the call's named
// arguments and returns the underlying service response.
type Func[Resp any] func(args Args) (Resp, error)

// TracedFunc is an invocation wrapped by ObserveTraced: it additionally
// receives the trace context, so it can start nested spans (typically via
// TraceTool) around tool calls it makes.
type TracedFunc[Resp any] func(trace *tracing.Context, args Args) (Resp, error)

// Observe wraps fn with telemetry and guardrail enforcement for agentID.
// name identifies the invocation in the root span; a function value
// carries no usable name at runtime, so callers supply one.
func Observe[Resp any](c *Client, agentID, name string, fn Func[Resp], opts ...ObserveOption) Func[Resp] {
	traced := func(trace *tracing.Context, args Args) (Resp, error) {
		return fn(args)
	}
	return observeWrapped(c, agentID, name, traced, opts...)
}

// ObserveTraced wraps fn the same way as Observe, additionally injecting
// the invocation's trace context so fn can create nested spans for its own
// tool calls via TraceTool.
func ObserveTraced[Resp any](c *Client, agentID, name string, fn TracedFunc[Resp], opts ...ObserveOption) Func[Resp] {
	return observeWrapped(c, agentID, name, fn, opts...)
}

func observeWrapped[Resp any](c *Client, agentID, name string, fn TracedFunc[Resp], opts ...ObserveOption) Func[Resp] {
	oc := observeDefaults()
	for _, opt := range opts {
		opt(oc)
	}

	return func(args Args) (resp Resp, err error) {
		if blocked, reason := safeKillSwitch(c, agentID); blocked {
			return resp, &AgentBlocked{AgentID: agentID, Reason: reason}
		}

		if violation := safeEvaluatePolicies(c, agentID, oc.modelID); violation != nil {
			return resp, violation
		}

		trace := tracing.New()
		root := trace.StartSpan(name, tracing.SpanChain, "", "")
		startedAt := time.Now().UTC()
		startMono := time.Now()

		defer func() {
			panicked := recover()
			emitTelemetry(c, oc, agentID, trace, root, args, resp, err, panicked, startedAt, startMono)
			if panicked != nil {
				panic(panicked)
			}
		}()

		resp, err = fn(trace, args)
		return resp, err
	}
}

// safeKillSwitch runs the kill-switch check inside a recover boundary: a
// panicking status lookup reports the agent unblocked rather than failing
// the invocation.
func safeKillSwitch(c *Client, agentID string) (blocked bool, reason string) {
	defer func() { _ = recover() }()
	return c.killSwitchBlocked(agentID)
}

// safeEvaluatePolicies runs policy evaluation inside a recover boundary: a
// panicking evaluation reports no violation. Deliberate violations are
// returned before any panic can occur, so they always surface.
func safeEvaluatePolicies(c *Client, agentID, modelID string) (violation error) {
	defer func() { _ = recover() }()
	return evaluatePolicies(c, agentID, modelID)
}

// emitTelemetry harvests the invocation's outcome and enqueues the
// telemetry event. It runs on every exit path, inside its own recover
// boundary: telemetry must never alter the wrapped function's result,
// whatever goes wrong assembling it.
func emitTelemetry[Resp any](c *Client, oc *observeConfig, agentID string, trace *tracing.Context, root *tracing.Span, args Args, resp Resp, err error, panicked any, startedAt time.Time, startMono time.Time) {
	defer func() {
		if r := recover(); r != nil {
			ilog.Debug("telemetry assembly failed: %v", r)
		}
	}()

	status := schema.StatusSuccess
	var errMsg, errType string
	switch {
	case panicked != nil:
		status = schema.StatusFailure
		errMsg = truncateTo(fmt.Sprint(panicked), maxErrorMessageLength)
		errType = "panic"
	case err != nil:
		status = schema.StatusFailure
		errMsg = truncateTo(err.Error(), maxErrorMessageLength)
		errType = fmt.Sprintf("%T", err)
	}

	endedAt := time.Now().UTC()
	durationMs := time.Since(startMono).Milliseconds()

	inputTokens, outputTokens := extractTokens(resp)
	modelID := extractModelID(resp)
	if modelID == "" {
		modelID = oc.modelID
	}

	spanStatus := tracing.SpanOK
	if status != schema.StatusSuccess {
		spanStatus = tracing.SpanError
	}
	trace.EndSpan(root, "", spanStatus, errMsg, inputTokens, outputTokens, modelID)

	extractBedrockTrace(resp, trace)

	promptText := args.promptText()
	var fp any
	var promptSummary string
	if promptText != "" {
		fp = fingerprint.Compute(promptText)
		promptSummary = truncateTo(promptText, maxPromptSummaryLength)
	}

	event := schema.TelemetryEvent{
		EventID:           schema.NewEventID(),
		EventType:         completionEventType(status),
		EventVersion:      schema.EventVersion,
		Timestamp:         time.Now().UTC().Format(time.RFC3339Nano),
		APIKey:            c.apiKey,
		AgentID:           agentID,
		AgentName:         oc.agentName,
		InvocationID:      schema.NewEventID(),
		SessionID:         args.stringNamed("session_id"),
		UserID:            args.stringNamed("user_id"),
		ModelID:           modelID,
		Region:            detectRegion(),
		StartedAt:         startedAt.Format(time.RFC3339Nano),
		EndedAt:           endedAt.Format(time.RFC3339Nano),
		DurationMs:        durationMs,
		InputTokens:       inputTokens,
		OutputTokens:      outputTokens,
		EstimatedCostUSD:  estimatedCost(modelID, inputTokens, outputTokens),
		Status:            status,
		ErrorMessage:      errMsg,
		ErrorType:         errType,
		ToolsCalled:       trace.ToolNames(),
		PromptSummary:     promptSummary,
		ResponseSummary:   extractResponseSummary(resp),
		PromptFingerprint: fp,
		Spans:             trace.ToSlice(),
		Tags:              oc.tags,
		SDKVersion:        c.cfg.sdkVersion,
	}

	c.recordInvocation(agentID)
	c.transport.Send(event)
}

func completionEventType(status schema.Status) schema.EventType {
	if status == schema.StatusSuccess {
		return schema.EventInvocationCompleted
	}
	return schema.EventInvocationFailed
}

// TraceTool wraps fn in a span named name, scoped to trace. If trace is
// nil (the invocation wasn't created with ObserveTraced) fn runs untraced,
// so the same tool function works inside and outside an observed
// invocation.
func TraceTool[Resp any](trace *tracing.Context, name string, spanType tracing.SpanType, args Args, fn func(Args) (Resp, error)) (resp Resp, err error) {
	if trace == nil {
		return fn(args)
	}

	span := trace.StartSpan(name, spanType, "", "")
	defer func() {
		panicked := recover()
		status := tracing.SpanOK
		var errMsg string
		switch {
		case panicked != nil:
			status = tracing.SpanError
			errMsg = fmt.Sprint(panicked)
		case err != nil:
			status = tracing.SpanError
			errMsg = err.Error()
		}
		output := ""
		if err == nil && panicked == nil {
			output = fmt.Sprint(resp)
		}
		trace.EndSpan(span, output, status, errMsg, 0, 0, "")
		if panicked != nil {
			panic(panicked)
		}
	}()

	resp, err = fn(args)
	return resp, err
}

func evaluatePolicies(c *Client, agentID, modelID string) error {
	policies := c.policies(agentID)
	for _, p := range policies {
		if p.Enforcement != "BLOCK" {
			continue
		}
		if msg := evaluateOnePolicy(c, agentID, modelID, p); msg != "" {
			return &PolicyViolation{
				AgentID:    agentID,
				PolicyID:   policyIDOrUnknown(p.PolicyID),
				PolicyType: p.PolicyType,
				Message:    msg,
			}
		}
	}
	return nil
}

func policyIDOrUnknown(id string) string {
	if id == "" {
		return "unknown"
	}
	return id
}

func evaluateOnePolicy(c *Client, agentID, modelID string, p status.Policy) string {
	switch p.PolicyType {
	case "COST_CAP":
		return evaluateCostCap(modelID, p.Conditions)
	case "TOKEN_LIMIT":
		return evaluateTokenLimit(p.Conditions)
	case "RATE_LIMIT":
		return evaluateRateLimit(c, agentID, p.Conditions)
	case "TIME_RESTRICTION":
		return evaluateTimeRestriction(p.Conditions)
	default:
		return ""
	}
}

func evaluateCostCap(modelID string, conditions map[string]any) string {
	maxCost, ok := floatCondition(conditions, "max_cost_usd")
	if !ok {
		return ""
	}
	estimated := estimatedCost(modelID, 500, 200)
	if estimated > maxCost {
		return fmt.Sprintf("estimated invocation cost $%.4f exceeds cap $%.4f", estimated, maxCost)
	}
	return ""
}

func evaluateTokenLimit(conditions map[string]any) string {
	maxTokens, ok := floatCondition(conditions, "max_tokens")
	if !ok {
		return ""
	}
	estimatedInput, ok := floatCondition(conditions, "estimated_input_tokens")
	if !ok || estimatedInput == 0 {
		return ""
	}
	if estimatedInput > maxTokens {
		return fmt.Sprintf("estimated tokens %.0f exceeds limit %.0f", estimatedInput, maxTokens)
	}
	return ""
}

func evaluateRateLimit(c *Client, agentID string, conditions map[string]any) string {
	maxInvocations, ok := floatCondition(conditions, "max_invocations")
	if !ok {
		return ""
	}
	windowMinutes, ok := floatCondition(conditions, "window_minutes")
	if !ok {
		windowMinutes = 60
	}
	window := time.Duration(windowMinutes * float64(time.Minute))
	count := c.countInWindow(agentID, window)
	if float64(count) >= maxInvocations {
		return fmt.Sprintf(
			"rate limit exceeded: %d invocations in last %.0f minutes (limit: %.0f)",
			count, windowMinutes, maxInvocations,
		)
	}
	return ""
}

func evaluateTimeRestriction(conditions map[string]any) string {
	start, end := 0, 24
	if hours, ok := conditions["allowed_hours_utc"].([]any); ok {
		if len(hours) > 0 {
			if v, ok := toFloat(hours[0]); ok {
				start = int(v)
			}
		}
		if len(hours) > 1 {
			if v, ok := toFloat(hours[1]); ok {
				end = int(v)
			}
		}
	}
	hour := time.Now().UTC().Hour()
	if hour >= start && hour < end {
		return ""
	}
	return fmt.Sprintf(
		"invocation outside allowed hours: current=%d:00 UTC, allowed=%d:00-%d:00 UTC",
		hour, start, end,
	)
}

func floatCondition(conditions map[string]any, key string) (float64, bool) {
	v, ok := conditions[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
