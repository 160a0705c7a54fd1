package tools_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/petasbytes/go-assistant/tools"
)

func TestSmartHome_ToolNames(t *testing.T) {
	defs := tools.SmartHome(nil).Definitions()
	want := []string{"get_temperature", "unlock_door", "turn_on_ac"}
	if len(defs) != len(want) {
		t.Fatalf("unexpected number of tools: got %d want %d", len(defs), len(want))
	}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Errorf("tool %d: got %q want %q", i, d.Name, want[i])
		}
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	_, err := tools.NewRegistry(tools.UnlockDoorDefinition, tools.UnlockDoorDefinition)
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestRegistry_NilAndEmpty(t *testing.T) {
	var r *tools.Registry
	if r.Len() != 0 || r.Definitions() != nil {
		t.Fatal("nil registry should be empty")
	}
	_, err := r.Execute("unlock_door", json.RawMessage(`{"side":"front"}`))
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("want ErrUnknownTool, got %v", err)
	}
}

func TestRegistry_Execute(t *testing.T) {
	r := tools.SmartHome(func(string) float64 { return 21.5 })

	cases := []struct {
		name    string
		tool    string
		args    string
		want    string
		wantErr error
	}{
		{"temperature", "get_temperature", `{"room":"kitchen"}`, "21.5°C", nil},
		{"unlock", "unlock_door", `{"side":"back"}`, "Door unlocked successfully", nil},
		{"ac ok", "turn_on_ac", `{"desired_temperature":22}`, "AC temperature set successfully", nil},
		{"ac refused", "turn_on_ac", `{"desired_temperature":35}`, "Failed to set AC temperature", nil},
		{"unknown tool", "open_garage", `{}`, "", tools.ErrUnknownTool},
		{"malformed json", "unlock_door", `{"side":`, "", tools.ErrInvalidArguments},
		{"enum violation", "get_temperature", `{"room":"garage"}`, "", tools.ErrInvalidArguments},
		{"missing required", "turn_on_ac", `{}`, "", tools.ErrInvalidArguments},
		{"empty args", "unlock_door", ``, "", tools.ErrInvalidArguments},
		{"extra property", "unlock_door", `{"side":"front","force":true}`, "", tools.ErrInvalidArguments},
		{"wrong type", "turn_on_ac", `{"desired_temperature":"cold"}`, "", tools.ErrInvalidArguments},
		{"trailing object", "unlock_door", `{"side":"front"} {"side":"back"}`, "", tools.ErrInvalidArguments},
		{"trailing garbage", "turn_on_ac", `{"desired_temperature":22}]`, "", tools.ErrInvalidArguments},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Execute(tc.tool, json.RawMessage(tc.args))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				var execErr *tools.ExecutionError
				if !errors.As(err, &execErr) || execErr.Tool != tc.tool {
					t.Fatalf("want *ExecutionError for %s, got %#v", tc.tool, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRegistry_FunctionErrorIsToolFailed(t *testing.T) {
	errTool := tools.ToolDefinition{
		Name:        "err_tool",
		Description: "always errors",
		InputSchema: tools.GenerateSchema[struct{}](),
		Function: func(input json.RawMessage) (string, error) {
			return "", errors.New("boom")
		},
	}
	r := tools.MustRegistry(errTool)
	_, err := r.Execute("err_tool", json.RawMessage(`{}`))
	if !errors.Is(err, tools.ErrToolFailed) {
		t.Fatalf("want ErrToolFailed, got %v", err)
	}
}
