package invokelens

import (
	"fmt"

	"github.com/InvokeLens/invokelens-sdk/internal/cost"
	"github.com/InvokeLens/invokelens-sdk/tracing"
)

// estimatedCost is a thin wrapper over the cost package so observe.go reads
// consistently with the rest of this file's harvesting helpers.
func estimatedCost(modelID string, inputTokens, outputTokens int) float64 {
	return cost.Estimate(modelID, inputTokens, outputTokens)
}

// asMap best-effort coerces a generic invocation response into the
// map[string]any shape the AWS SDK for Go v2's Bedrock clients return for
// untyped (document) responses. Typed SDK responses won't match and simply
// yield no harvested telemetry, which is fine: extraction here is always
// advisory.
func asMap(resp any) (map[string]any, bool) {
	m, ok := resp.(map[string]any)
	return m, ok
}

// stringOf stringifies a probed value, treating an absent key (nil) as
// empty rather than the literal "<nil>".
func stringOf(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func asIntFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// extractTokens best-effort extracts input/output token counts from a
// Bedrock-shaped response, checking both the top-level "usage" block and
// the nested "ResponseMetadata.usage" block, and both camelCase and
// snake_case key variants.
func extractTokens(resp any) (int, int) {
	m, ok := asMap(resp)
	if !ok {
		return 0, 0
	}

	var in, out any
	if usage, ok := asMap(m["usage"]); ok {
		in = usage["inputTokens"]
		if in == nil {
			in = usage["input_tokens"]
		}
		out = usage["outputTokens"]
		if out == nil {
			out = usage["output_tokens"]
		}
	}

	if meta, ok := asMap(m["ResponseMetadata"]); ok {
		if usage, ok := asMap(meta["usage"]); ok {
			if in == nil {
				in = usage["inputTokens"]
			}
			if out == nil {
				out = usage["outputTokens"]
			}
		}
	}

	return asIntFromAny(in), asIntFromAny(out)
}

// extractModelID best-effort extracts a model identifier from a
// Bedrock-shaped response.
func extractModelID(resp any) string {
	m, ok := asMap(resp)
	if !ok {
		return ""
	}
	if id, ok := m["modelId"].(string); ok && id != "" {
		return id
	}
	if id, ok := m["model_id"].(string); ok && id != "" {
		return id
	}
	return ""
}

// extractBedrockTrace best-effort walks a Bedrock InvokeAgent response's
// trace.orchestrationTrace block, recording model-invocation steps as llm
// spans and action-group invocations as tool spans. Any shape mismatch is
// silently ignored: this is auxiliary telemetry, never load-bearing.
func extractBedrockTrace(resp any, trace *tracing.Context) {
	m, ok := asMap(resp)
	if !ok {
		return
	}
	traceBlock, ok := asMap(m["trace"])
	if !ok {
		return
	}
	orch, ok := asMap(traceBlock["orchestrationTrace"])
	if !ok {
		return
	}

	if steps, ok := orch["modelInvocationInput"].([]any); ok {
		for _, raw := range steps {
			step, ok := asMap(raw)
			if !ok {
				continue
			}
			name, _ := step["type"].(string)
			if name == "" {
				name = "llm_call"
			}
			modelID, _ := step["foundationModel"].(string)
			input := stringOf(step["text"])
			span := trace.StartSpan(name, tracing.SpanLLM, input, modelID)
			output := ""
			if raw, ok := asMap(step["rawResponse"]); ok {
				output = stringOf(raw["content"])
			}
			trace.EndSpan(span, output, tracing.SpanOK, "", 0, 0, modelID)
		}
	}

	if invocations, ok := orch["invocationInput"].([]any); ok {
		for _, raw := range invocations {
			inv, ok := asMap(raw)
			if !ok {
				continue
			}
			actionInput, ok := asMap(inv["actionGroupInvocationInput"])
			if !ok {
				continue
			}
			name, _ := actionInput["actionGroupName"].(string)
			if name == "" {
				name = "action_group"
			}
			input := stringOf(actionInput["apiPath"])
			span := trace.StartSpan(name, tracing.SpanTool, input, "")
			output := stringOf(actionInput["verb"])
			trace.EndSpan(span, output, tracing.SpanOK, "", 0, 0, "")
		}
	}
}

// extractResponseSummary best-effort pulls the response's completion text,
// probing the keys Bedrock's InvokeAgent and InvokeModel responses use.
func extractResponseSummary(resp any) string {
	m, ok := asMap(resp)
	if !ok {
		return ""
	}
	for _, key := range []string{"completion", "outputText", "output"} {
		if s, ok := m[key].(string); ok && s != "" {
			return truncateTo(s, maxPromptSummaryLength)
		}
	}
	return ""
}
