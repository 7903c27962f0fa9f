package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := NewDefault()

	var high, medium, low, embeddings bool
	for _, m := range c.ListModels() {
		if m.IsEmbeddingModel() {
			embeddings = true
			// embedding models never carry chat capabilities
			assert.False(t, m.HasCapability(CapabilityReasoning), m.ModelName)
			continue
		}
		switch m.QualityTier {
		case QualityHigh:
			high = true
		case QualityMedium:
			medium = true
		case QualityLow:
			low = true
		}
	}
	assert.True(t, high, "high quality chat model")
	assert.True(t, medium, "medium quality chat model")
	assert.True(t, low, "low quality chat model")
	assert.True(t, embeddings, "embeddings model")
}

func TestGetModel(t *testing.T) {
	c := NewDefault()

	m, err := c.GetModel("gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, m.ProviderName)
	assert.InDelta(t, 0.00075, m.CombinedRate(), 1e-12)

	_, err = c.GetModel("does-not-exist")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name   string
		models []ModelDescriptor
	}{
		{
			name:   "missing name",
			models: []ModelDescriptor{{ProviderName: "openai", MaxContextTokens: 10}},
		},
		{
			name:   "missing provider",
			models: []ModelDescriptor{{ModelName: "m", MaxContextTokens: 10}},
		},
		{
			name: "negative cost",
			models: []ModelDescriptor{
				{ProviderName: "openai", ModelName: "m", MaxContextTokens: 10, CostPerThousandInputTokens: -1},
			},
		},
		{
			name: "duplicate",
			models: []ModelDescriptor{
				{ProviderName: "openai", ModelName: "m", MaxContextTokens: 10},
				{ProviderName: "groq", ModelName: "m", MaxContextTokens: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				_, err := New(tt.models)
				assert.Error(t, err)
			},
		)
	}
}

func TestListModelsIsACopy(t *testing.T) {
	c := NewDefault()
	list := c.ListModels()
	list[0].ModelName = "mutated"

	assert.NotEqual(t, "mutated", c.ListModels()[0].ModelName)
}

func TestWithOverrides(t *testing.T) {
	c := NewDefault()
	out, err := c.WithOverrides(
		[]ModelDescriptor{
			{
				ProviderName: ProviderOpenAI, ModelName: "gpt-4o-mini", MaxContextTokens: 1000,
				CostPerThousandInputTokens: 1, QualityTier: QualityLow,
			},
			{ProviderName: ProviderGroq, ModelName: "mixtral", MaxContextTokens: 32768},
		},
	)
	require.NoError(t, err)

	m, err := out.GetModel("gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.CostPerThousandInputTokens)
	assert.Equal(t, c.Len()+1, out.Len())
	assert.Equal(t, "mixtral", out.ListModels()[out.Len()-1].ModelName)

	// original untouched
	orig, _ := c.GetModel("gpt-4o-mini")
	assert.Equal(t, 0.00015, orig.CostPerThousandInputTokens)
}

func TestFilterKeepsOrder(t *testing.T) {
	c := NewDefault()
	openaiOnly := c.Filter(func(m ModelDescriptor) bool { return m.ProviderName == ProviderOpenAI })

	var names []string
	for _, m := range openaiOnly.ListModels() {
		assert.Equal(t, ProviderOpenAI, m.ProviderName)
		names = append(names, m.ModelName)
	}
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo", "text-embedding-3-small", "text-embedding-3-large"}, names)

	_, err := openaiOnly.GetModel("gpt-3.5-turbo")
	assert.NoError(t, err)
}

func TestParseQualityTier(t *testing.T) {
	q, err := ParseQualityTier("Medium")
	require.NoError(t, err)
	assert.Equal(t, QualityMedium, q)
	assert.True(t, QualityLow < QualityMedium && QualityMedium < QualityHigh)

	_, err = ParseQualityTier("ultra")
	assert.Error(t, err)
}
