package telemetry

import "sync"

// Config controls the JSONL event sink.
type Config struct {
	// Observe turns emission on.
	Observe bool
	// Dir receives events.jsonl; defaults to ".agent".
	Dir string
}

const defaultDir = ".agent"

var (
	mu  sync.Mutex
	cfg Config
)

// Configure replaces the sink configuration. Safe to call at any time;
// emissions already in flight finish against the previous config.
func Configure(c Config) {
	if c.Dir == "" {
		c.Dir = defaultDir
	}
	mu.Lock()
	cfg = c
	mu.Unlock()
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return cfg.Observe
}
