// Package telemetry writes privacy-safe JSONL events and carries the
// per-turn correlation id in context.
package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Emit appends a single JSON line to <Dir>/events.jsonl when observation is on.
// It augments fields with RFC3339Nano time and the event name. Failures are
// logged, never returned: telemetry must not break a chat turn.
func Emit(name string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()
	if !cfg.Observe {
		return
	}

	// Make a shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		log.Warn().Err(err).Str("event", name).Msg("telemetry: marshal")
		return
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Dir).Msg("telemetry: mkdir")
		return
	}

	path := filepath.Join(cfg.Dir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("telemetry: open")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("telemetry: write")
	}
}
