package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpanParenting(t *testing.T) {
	ctx := New()
	root := ctx.StartSpan("root", SpanChain, "", "")
	child := ctx.StartSpan("child", SpanTool, "do a thing", "")
	assert.Equal(t, root.SpanID, child.ParentSpanID)
	assert.Len(t, ctx.Spans(), 2)
}

func TestEndSpanPopsActiveStack(t *testing.T) {
	ctx := New()
	a := ctx.StartSpan("a", SpanChain, "", "")
	b := ctx.StartSpan("b", SpanTool, "", "")
	ctx.EndSpan(b, "done", SpanOK, "", 0, 0, "")
	c := ctx.StartSpan("c", SpanTool, "", "")
	assert.Equal(t, a.SpanID, c.ParentSpanID)
}

func TestMaxSpansPerTraceDropsAsDetached(t *testing.T) {
	ctx := New()
	for i := 0; i < MaxSpansPerTrace; i++ {
		ctx.StartSpan("s", SpanCustom, "", "")
	}
	require.Len(t, ctx.Spans(), MaxSpansPerTrace)

	overflow := ctx.StartSpan("overflow", SpanCustom, "", "")
	assert.Len(t, ctx.Spans(), MaxSpansPerTrace, "overflow span must not be recorded")
	assert.Equal(t, "overflow", overflow.Name, "caller can still use the detached span")
}

func TestTruncateLongInputOutput(t *testing.T) {
	ctx := New()
	long := strings.Repeat("x", MaxIOLength+500)
	span := ctx.StartSpan("s", SpanLLM, long, "")
	assert.Len(t, span.Input, MaxIOLength)
	assert.True(t, strings.HasSuffix(span.Input, "...[truncated]"))

	ctx.EndSpan(span, long, SpanOK, "", 10, 10, "anthropic.claude-3-haiku")
	assert.Len(t, span.Output, MaxIOLength)
}

func TestEndSpanComputesCost(t *testing.T) {
	ctx := New()
	span := ctx.StartSpan("s", SpanLLM, "hi", "")
	ctx.EndSpan(span, "out", SpanOK, "", 1000, 1000, "anthropic.claude-3-haiku")
	assert.InDelta(t, 0.0015, span.EstimatedCostUSD, 0.0001)
}

func TestWithSpanRecoversAndMarksError(t *testing.T) {
	ctx := New()
	assert.Panics(t, func() {
		ctx.WithSpan("risky", SpanTool, "", "", func(s *Span) {
			panic("boom")
		})
	})
	spans := ctx.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanError, spans[0].Status)
	assert.Equal(t, "boom", spans[0].Error)
}

func TestWithSpanSuccess(t *testing.T) {
	ctx := New()
	ctx.WithSpan("ok", SpanTool, "in", "", func(s *Span) {
		s.Output = "result"
	})
	spans := ctx.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanOK, spans[0].Status)
	assert.Equal(t, "result", spans[0].Output)
}

func TestToolNames(t *testing.T) {
	ctx := New()
	ctx.StartSpan("chain", SpanChain, "", "")
	ctx.StartSpan("search", SpanTool, "", "")
	ctx.StartSpan("lookup", SpanTool, "", "")
	assert.Equal(t, []string{"search", "lookup"}, ctx.ToolNames())
}
