package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrModelNotFound = errors.New("model not found in catalog")

// QualityTier is ordered: QualityLow < QualityMedium < QualityHigh.
type QualityTier int

const (
	QualityLow QualityTier = iota
	QualityMedium
	QualityHigh
)

func (q QualityTier) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// ParseQualityTier accepts "low", "medium" or "high" in any case.
func ParseQualityTier(s string) (QualityTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "":
		return QualityLow, nil
	case "medium":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	default:
		return QualityLow, fmt.Errorf("unknown quality tier: %q", s)
	}
}

type Capability string

const (
	CapabilityReasoning  Capability = "reasoning"
	CapabilityCreativity Capability = "creativity"
	CapabilityAnalysis   Capability = "analysis"
	CapabilityMultimodal Capability = "multimodal"
	CapabilityEmbeddings Capability = "embeddings"
)

// ModelDescriptor is an immutable catalog entry. Prices are per 1000 tokens.
type ModelDescriptor struct {
	ProviderName                string
	ModelName                   string
	MaxContextTokens            int
	CostPerThousandInputTokens  float64
	CostPerThousandOutputTokens float64
	ExpectedLatencyMillis       int
	QualityTier                 QualityTier
	Capabilities                []Capability
}

// HasCapability reports whether the model carries the given tag.
func (m ModelDescriptor) HasCapability(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// HasAll reports whether every tag in required is present on the model.
func (m ModelDescriptor) HasAll(required []Capability) bool {
	for _, c := range required {
		if !m.HasCapability(c) {
			return false
		}
	}
	return true
}

// CombinedRate is the input rate plus the output rate per 1000 tokens.
// Selection compares this blended figure against the caller's cost ceiling.
func (m ModelDescriptor) CombinedRate() float64 {
	return m.CostPerThousandInputTokens + m.CostPerThousandOutputTokens
}

// IsEmbeddingModel reports whether the model serves embedding generation.
func (m ModelDescriptor) IsEmbeddingModel() bool {
	return m.HasCapability(CapabilityEmbeddings)
}

func (m ModelDescriptor) validate() error {
	if m.ModelName == "" {
		return errors.New("model name is required")
	}
	if m.ProviderName == "" {
		return fmt.Errorf("model %s: provider name is required", m.ModelName)
	}
	if m.CostPerThousandInputTokens < 0 || m.CostPerThousandOutputTokens < 0 {
		return fmt.Errorf("model %s: token costs must be non-negative", m.ModelName)
	}
	if m.MaxContextTokens <= 0 {
		return fmt.Errorf("model %s: max context tokens must be positive", m.ModelName)
	}
	return nil
}

// Catalog is a read-only registry of models. It keeps insertion order,
// which the selector uses as its final tie-break.
type Catalog struct {
	models []ModelDescriptor
	index  map[string]int
}

// New builds a catalog from descriptors. Model names must be unique.
func New(models []ModelDescriptor) (*Catalog, error) {
	c := &Catalog{
		models: make([]ModelDescriptor, 0, len(models)),
		index:  make(map[string]int, len(models)),
	}
	for _, m := range models {
		if err := m.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[m.ModelName]; dup {
			return nil, fmt.Errorf("duplicate model name: %s", m.ModelName)
		}
		m.Capabilities = append([]Capability(nil), m.Capabilities...)
		c.index[m.ModelName] = len(c.models)
		c.models = append(c.models, m)
	}
	return c, nil
}

// NewDefault returns a catalog populated with DefaultModels.
func NewDefault() *Catalog {
	c, err := New(DefaultModels)
	if err != nil {
		panic(fmt.Sprintf("default catalog is invalid: %v", err))
	}
	return c
}

// ListModels returns the models in insertion order. The slice is a copy.
func (c *Catalog) ListModels() []ModelDescriptor {
	out := make([]ModelDescriptor, len(c.models))
	copy(out, c.models)
	return out
}

// GetModel looks a model up by name.
func (c *Catalog) GetModel(name string) (ModelDescriptor, error) {
	i, ok := c.index[name]
	if !ok {
		return ModelDescriptor{}, fmt.Errorf("%s: %w", name, ErrModelNotFound)
	}
	return c.models[i], nil
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	return len(c.models)
}

// Filter returns a new catalog holding only the models keep accepts,
// in the same order.
func (c *Catalog) Filter(keep func(ModelDescriptor) bool) *Catalog {
	out := &Catalog{index: make(map[string]int)}
	for _, m := range c.models {
		if keep(m) {
			out.index[m.ModelName] = len(out.models)
			out.models = append(out.models, m)
		}
	}
	return out
}

// WithOverrides returns a catalog where each override replaces the entry of
// the same name, or is appended when no such entry exists.
func (c *Catalog) WithOverrides(overrides []ModelDescriptor) (*Catalog, error) {
	merged := c.ListModels()
	for _, o := range overrides {
		if i, ok := c.index[o.ModelName]; ok {
			merged[i] = o
			continue
		}
		merged = append(merged, o)
	}
	return New(merged)
}
