package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
)

// Sensor reads the current temperature of a room in °C.
type Sensor func(room string) float64

// RandomSensor stands in for real hardware: a uniform reading in
// [18.0, 25.0] rounded to one decimal.
func RandomSensor(string) float64 {
	return math.Round((18.0+rand.Float64()*7.0)*10) / 10
}

type GetTemperatureInput struct {
	Room string `json:"room" jsonschema:"enum=living room,enum=bedroom,enum=kitchen,enum=hall" jsonschema_description:"Room name"`
}

type UnlockDoorInput struct {
	Side string `json:"side" jsonschema:"enum=front,enum=back" jsonschema_description:"Side of the house"`
}

type TurnOnACInput struct {
	DesiredTemperature float64 `json:"desired_temperature" jsonschema_description:"Target temperature"`
}

var (
	GetTemperatureInputSchema = GenerateSchema[GetTemperatureInput]()
	UnlockDoorInputSchema     = GenerateSchema[UnlockDoorInput]()
	TurnOnACInputSchema       = GenerateSchema[TurnOnACInput]()
)

// AC set-points outside this inclusive range are refused.
const (
	minACTemperature = 16
	maxACTemperature = 30
)

// UnlockDoor is an actuator stand-in; it always succeeds.
func UnlockDoor(side string) bool {
	return true
}

// TurnOnAC accepts a set-point iff it lies within [16, 30].
func TurnOnAC(desired float64) bool {
	return desired >= minACTemperature && desired <= maxACTemperature
}

func GetTemperatureDefinition(sensor Sensor) ToolDefinition {
	if sensor == nil {
		sensor = RandomSensor
	}
	return ToolDefinition{
		Name:        "get_temperature",
		Description: "Receives a temperature for the given room",
		InputSchema: GetTemperatureInputSchema,
		Function: func(input json.RawMessage) (string, error) {
			var in GetTemperatureInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", err
			}
			return fmt.Sprintf("%.1f°C", sensor(in.Room)), nil
		},
	}
}

var UnlockDoorDefinition = ToolDefinition{
	Name:        "unlock_door",
	Description: "Unlocks a door",
	InputSchema: UnlockDoorInputSchema,
	Function: func(input json.RawMessage) (string, error) {
		var in UnlockDoorInput
		if err := json.Unmarshal(input, &in); err != nil {
			return "", err
		}
		if UnlockDoor(in.Side) {
			return "Door unlocked successfully", nil
		}
		return "Failed to unlock door", nil
	},
}

var TurnOnACDefinition = ToolDefinition{
	Name:        "turn_on_ac",
	Description: "Turns on air conditioning for the selected temperature",
	InputSchema: TurnOnACInputSchema,
	Function: func(input json.RawMessage) (string, error) {
		var in TurnOnACInput
		if err := json.Unmarshal(input, &in); err != nil {
			return "", err
		}
		if TurnOnAC(in.DesiredTemperature) {
			return "AC temperature set successfully", nil
		}
		return "Failed to set AC temperature", nil
	},
}

// SmartHome returns the smart-home registry backed by sensor
// (RandomSensor when nil).
func SmartHome(sensor Sensor) *Registry {
	return MustRegistry(GetTemperatureDefinition(sensor), UnlockDoorDefinition, TurnOnACDefinition)
}
