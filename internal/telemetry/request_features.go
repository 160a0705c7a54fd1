package telemetry

import (
	"context"

	"github.com/petasbytes/go-assistant/internal/metrics"
)

// EmitRequestFeatures records size features of an inbound utterance without
// its text.
func EmitRequestFeatures(ctx context.Context, mode, text string) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(text)
	Emit("request_features", map[string]any{
		"turn_id": turnID,
		"mode":    mode,
		"user": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
