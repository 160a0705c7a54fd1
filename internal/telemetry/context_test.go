package telemetry_test

import (
	"context"
	"strings"
	"testing"

	"github.com/petasbytes/go-assistant/internal/telemetry"
)

func TestTurnIDFromContext(t *testing.T) {
	bg := context.Background()
	cases := []struct {
		name   string
		ctx    context.Context
		want   string
		wantOK bool
	}{
		{"set", telemetry.WithTurnID(bg, "turn-123"), "turn-123", true},
		{"missing", bg, "", false},
		{"empty rejected", telemetry.WithTurnID(bg, ""), "", false},
		{"last write wins", telemetry.WithTurnID(telemetry.WithTurnID(bg, "t1"), "t2"), "t2", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := telemetry.TurnIDFromContext(tc.ctx)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("got %q,%v; want %q,%v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestEnsureTurnID(t *testing.T) {
	ctx, id := telemetry.EnsureTurnID(context.Background())
	if !strings.HasPrefix(id, "turn-") {
		t.Fatalf("generated id %q lacks turn- prefix", id)
	}
	if got, _ := telemetry.TurnIDFromContext(ctx); got != id {
		t.Fatalf("context carries %q, want %q", got, id)
	}

	ctx2, id2 := telemetry.EnsureTurnID(ctx)
	if id2 != id || ctx2 != ctx {
		t.Fatalf("existing turn id should be kept: %q vs %q", id2, id)
	}
}

func TestNewTurnID_Unique(t *testing.T) {
	if telemetry.NewTurnID() == telemetry.NewTurnID() {
		t.Fatal("turn ids collide")
	}
}
