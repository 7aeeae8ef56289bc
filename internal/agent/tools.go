package agent

import (
	"fmt"

	"github.com/fablewright/fablewright/pkg/chat"
	"github.com/fablewright/fablewright/pkg/state"
)

// Tool names the model may invoke to mutate game state.
const (
	ToolSetTime     = "set_time"
	ToolSetLocation = "set_location"
	ToolSetOutfit   = "set_outfit"
)

// GameTools returns the static tool definitions passed with every chat
// request.
func GameTools() []chat.Tool {
	return []chat.Tool{
		chat.NewFunctionTool(
			ToolSetTime,
			"Update the time of day in the game world",
			[]string{"time"},
			map[string]chat.ToolProperty{
				"time": {
					Type:        "string",
					Description: "The time of day",
					Enum:        []string{state.TimeMorning, state.TimeAfternoon, state.TimeEvening, state.TimeNight},
				},
			},
		),
		chat.NewFunctionTool(
			ToolSetLocation,
			"Change the player's current location",
			[]string{"location"},
			map[string]chat.ToolProperty{
				"location": {
					Type:        "string",
					Description: "The name of the new location",
				},
			},
		),
		chat.NewFunctionTool(
			ToolSetOutfit,
			"Change the player's outfit or equipment",
			[]string{"outfit"},
			map[string]chat.ToolProperty{
				"outfit": {
					Type:        "string",
					Description: "Description of the outfit or equipment",
				},
			},
		),
	}
}

// executeTool applies a tool invocation to the game state. Arguments
// arrive untyped from the stream decoder; each tool validates its own
// required field here. Values are stored verbatim, including set_time
// values outside the advertised enum.
func executeTool(name string, args map[string]interface{}, gs *state.GameState) error {
	switch name {
	case ToolSetTime:
		v, err := stringArg(args, "time")
		if err != nil {
			return err
		}
		gs.Time = v
	case ToolSetLocation:
		v, err := stringArg(args, "location")
		if err != nil {
			return err
		}
		gs.Location = v
	case ToolSetOutfit:
		v, err := stringArg(args, "outfit")
		if err != nil {
			return err
		}
		gs.Outfit = v
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
	return nil
}

// stringArg extracts a required string argument. A present but
// non-string value is reported the same way as an absent one.
func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing '%s' argument", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("missing '%s' argument", key)
	}
	return s, nil
}
