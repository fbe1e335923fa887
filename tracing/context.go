package tracing

import "sync"

// Context collects the spans produced over the lifetime of a single
// invocation. It is safe for concurrent use: most invocations are
// single-goroutine, but tool calls may run concurrently and still need to
// attach to the same parent span.
type Context struct {
	mu          sync.Mutex
	spans       []*Span
	activeStack []string
}

// New creates an empty trace context for one invocation.
func New() *Context {
	return &Context{}
}

// StartSpan creates and registers a new span, parented to whichever span is
// currently on top of the active stack (or no parent, if the stack is
// empty). Once MaxSpansPerTrace spans have been recorded, further calls
// return a detached span: usable by the caller but never recorded and
// never serialized into the trace's output.
func (c *Context) StartSpan(name string, spanType SpanType, input, modelID string) *Span {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.spans) >= MaxSpansPerTrace {
		return newSpan(name, spanType, "", input, modelID)
	}

	var parentID string
	if n := len(c.activeStack); n > 0 {
		parentID = c.activeStack[n-1]
	}
	span := newSpan(name, spanType, parentID, input, modelID)
	c.spans = append(c.spans, span)
	c.activeStack = append(c.activeStack, span.SpanID)
	return span
}

// EndSpan finalizes span with its outcome and pops it off the active
// stack if it is the current top entry.
func (c *Context) EndSpan(span *Span, output string, status SpanStatus, errMsg string, inputTokens, outputTokens int, modelID string) {
	span.finish(output, status, errMsg, inputTokens, outputTokens, modelID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.activeStack); n > 0 && c.activeStack[n-1] == span.SpanID {
		c.activeStack = c.activeStack[:n-1]
	}
}

// WithSpan starts a span, runs fn with it, and always ends the span on
// return, including when fn panics: the span is marked ERROR and the panic
// re-raised after the span is closed.
func (c *Context) WithSpan(name string, spanType SpanType, input, modelID string, fn func(*Span)) {
	span := c.StartSpan(name, spanType, input, modelID)
	defer func() {
		if r := recover(); r != nil {
			c.EndSpan(span, span.Output, SpanError, panicMessage(r), span.InputTokens, span.OutputTokens, span.ModelID)
			panic(r)
		}
	}()
	fn(span)
	c.EndSpan(span, span.Output, span.Status, span.Error, span.InputTokens, span.OutputTokens, span.ModelID)
}

func panicMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "panic in traced span"
}

// Spans returns a snapshot of every recorded span in this trace.
func (c *Context) Spans() []*Span {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Span, len(c.spans))
	copy(out, c.spans)
	return out
}

// ToSlice returns the recorded spans as a slice of plain values, the shape
// used when assembling a TelemetryEvent for serialization.
func (c *Context) ToSlice() []any {
	spans := c.Spans()
	out := make([]any, len(spans))
	for i, s := range spans {
		out[i] = s
	}
	return out
}

// ToolNames returns the names of every recorded span whose type is "tool",
// in recorded order.
func (c *Context) ToolNames() []string {
	spans := c.Spans()
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		if s.SpanType == SpanTool {
			names = append(names, s.Name)
		}
	}
	return names
}
