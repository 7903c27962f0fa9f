package catalog

const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderGoogle     = "google"
)

// DefaultModels is the catalog loaded at process start unless overridden by
// configuration. Prices are USD per 1000 tokens.
var DefaultModels = []ModelDescriptor{
	{
		ProviderName:                ProviderAnthropic,
		ModelName:                   "claude-3-5-sonnet-20241022",
		MaxContextTokens:            200000,
		CostPerThousandInputTokens:  0.003,
		CostPerThousandOutputTokens: 0.015,
		ExpectedLatencyMillis:       2000,
		QualityTier:                 QualityHigh,
		Capabilities: []Capability{
			CapabilityReasoning, CapabilityCreativity, CapabilityAnalysis, CapabilityMultimodal,
		},
	},
	{
		ProviderName:                ProviderOpenAI,
		ModelName:                   "gpt-4o",
		MaxContextTokens:            128000,
		CostPerThousandInputTokens:  0.0025,
		CostPerThousandOutputTokens: 0.01,
		ExpectedLatencyMillis:       1800,
		QualityTier:                 QualityHigh,
		Capabilities: []Capability{
			CapabilityReasoning, CapabilityCreativity, CapabilityAnalysis, CapabilityMultimodal,
		},
	},
	{
		ProviderName:                ProviderOpenAI,
		ModelName:                   "gpt-4o-mini",
		MaxContextTokens:            128000,
		CostPerThousandInputTokens:  0.00015,
		CostPerThousandOutputTokens: 0.0006,
		ExpectedLatencyMillis:       1000,
		QualityTier:                 QualityMedium,
		Capabilities: []Capability{
			CapabilityReasoning, CapabilityCreativity, CapabilityAnalysis, CapabilityMultimodal,
		},
	},
	{
		ProviderName:                ProviderGroq,
		ModelName:                   "llama-3.1-8b-instant",
		MaxContextTokens:            131072,
		CostPerThousandInputTokens:  0.00005,
		CostPerThousandOutputTokens: 0.00008,
		ExpectedLatencyMillis:       400,
		QualityTier:                 QualityLow,
		Capabilities:                []Capability{CapabilityReasoning, CapabilityCreativity},
	},
	{
		ProviderName:                ProviderGoogle,
		ModelName:                   "gemini-1.5-flash-8b",
		MaxContextTokens:            1048576,
		CostPerThousandInputTokens:  0.0000375,
		CostPerThousandOutputTokens: 0.00015,
		ExpectedLatencyMillis:       600,
		QualityTier:                 QualityLow,
		Capabilities:                []Capability{CapabilityReasoning, CapabilityMultimodal},
	},
	{
		ProviderName:                ProviderOpenRouter,
		ModelName:                   "mistralai/mistral-small",
		MaxContextTokens:            32768,
		CostPerThousandInputTokens:  0.0002,
		CostPerThousandOutputTokens: 0.0006,
		ExpectedLatencyMillis:       1200,
		QualityTier:                 QualityMedium,
		Capabilities:                []Capability{CapabilityReasoning, CapabilityCreativity},
	},
	{
		ProviderName:                ProviderOpenAI,
		ModelName:                   "gpt-3.5-turbo",
		MaxContextTokens:            16385,
		CostPerThousandInputTokens:  0.0005,
		CostPerThousandOutputTokens: 0.0015,
		ExpectedLatencyMillis:       500,
		QualityTier:                 QualityLow,
		Capabilities:                []Capability{CapabilityReasoning, CapabilityCreativity},
	},
	{
		ProviderName:                ProviderOpenAI,
		ModelName:                   "text-embedding-3-small",
		MaxContextTokens:            8191,
		CostPerThousandInputTokens:  0.00002,
		CostPerThousandOutputTokens: 0,
		ExpectedLatencyMillis:       300,
		QualityTier:                 QualityMedium,
		Capabilities:                []Capability{CapabilityEmbeddings},
	},
	{
		ProviderName:                ProviderOpenAI,
		ModelName:                   "text-embedding-3-large",
		MaxContextTokens:            8191,
		CostPerThousandInputTokens:  0.00013,
		CostPerThousandOutputTokens: 0,
		ExpectedLatencyMillis:       400,
		QualityTier:                 QualityHigh,
		Capabilities:                []Capability{CapabilityEmbeddings},
	},
}
