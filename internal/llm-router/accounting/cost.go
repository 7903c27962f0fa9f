package accounting

import "llm-router/internal/llm-router/catalog"

// ComputeCost prices a call at the model's per-1000-token rates. The result is
// never rounded; round only for display.
func ComputeCost(model catalog.ModelDescriptor, inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*model.CostPerThousandInputTokens +
		float64(outputTokens)/1000*model.CostPerThousandOutputTokens
}
