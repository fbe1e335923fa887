// Package cost estimates the USD cost of a model invocation from a static,
// per-model pricing table, with support for runtime overrides.
package cost

import (
	"math"
	"sync"
)

// pricing holds per-1,000-token USD rates for a model.
type pricing struct {
	input  float64
	output float64
}

// modelPricing lists approximate on-demand Bedrock rates, in USD per 1,000
// tokens. "_default" is used for any model_id not otherwise listed.
var modelPricing = map[string]pricing{
	"anthropic.claude-3-5-sonnet":   {input: 0.003, output: 0.015},
	"anthropic.claude-3-sonnet":     {input: 0.003, output: 0.015},
	"anthropic.claude-3-haiku":      {input: 0.00025, output: 0.00125},
	"anthropic.claude-3-opus":       {input: 0.015, output: 0.075},
	"amazon.titan-text-lite-v1":     {input: 0.0003, output: 0.0004},
	"amazon.titan-text-express-v1":  {input: 0.0008, output: 0.0016},
	"meta.llama3-70b-instruct-v1":   {input: 0.00265, output: 0.0035},
	"meta.llama3-8b-instruct-v1":    {input: 0.0003, output: 0.0006},
	"mistral.mistral-large":         {input: 0.004, output: 0.012},
	"mistral.mistral-small":         {input: 0.001, output: 0.003},
	"cohere.command-r-plus-v1":      {input: 0.003, output: 0.015},
	"_default":                      {input: 0.003, output: 0.015},
}

var (
	mu     sync.RWMutex
	custom = map[string]pricing{}
)

// SetCustomPricing overrides the per-1,000-token rates for modelID. It takes
// effect for every subsequent Estimate call, process-wide.
func SetCustomPricing(modelID string, inputPer1K, outputPer1K float64) {
	mu.Lock()
	defer mu.Unlock()
	custom[modelID] = pricing{input: inputPer1K, output: outputPer1K}
}

// Estimate returns the estimated USD cost of an invocation against modelID
// with the given token counts. Unknown models fall back to the "_default"
// rate rather than erroring, since cost estimation is advisory.
func Estimate(modelID string, inputTokens, outputTokens int) float64 {
	mu.RLock()
	p, ok := custom[modelID]
	mu.RUnlock()
	if !ok {
		p, ok = modelPricing[modelID]
		if !ok {
			p = modelPricing["_default"]
		}
	}
	inputCost := (float64(inputTokens) / 1000) * p.input
	outputCost := (float64(outputTokens) / 1000) * p.output
	return round8(inputCost + outputCost)
}

func round8(v float64) float64 {
	const factor = 1e8
	return math.Round(v*factor) / factor
}
