package config

const (
	assistantPreamble = "You are a helpful assistant."
	homePreamble      = "You are a helpful home assistant. Your job is to manage smart home using tools."
)

// Preset holds the per-mode request shape.
type Preset struct {
	Preamble    string
	Temperature *float64
	MaxTokens   int64
	// Tools enables the smart-home registry.
	Tools bool
	// Retrieval enables the RAG pre-step and the /document route.
	Retrieval bool
}

func temperature(t float64) *float64 { return &t }

// PresetFor returns the preset of mode; unknown modes get the chat preset.
func PresetFor(mode string) Preset {
	switch mode {
	case ModeRAG:
		return Preset{Preamble: assistantPreamble, Temperature: temperature(0.7), MaxTokens: 800, Retrieval: true}
	case ModeSmartHome:
		return Preset{Preamble: homePreamble, Temperature: temperature(0.7), Tools: true}
	default:
		return Preset{Preamble: assistantPreamble}
	}
}

// Preset applies the provider overrides to the mode's preset.
func (c *Config) Preset() Preset {
	p := PresetFor(c.Mode)
	if c.Provider.Temperature != nil {
		p.Temperature = c.Provider.Temperature
	}
	if c.Provider.MaxTokens > 0 {
		p.MaxTokens = c.Provider.MaxTokens
	}
	return p
}
