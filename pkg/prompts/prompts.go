package prompts

import (
	"fmt"

	"github.com/fablewright/fablewright/pkg/state"
)

// SystemPrompt is the dungeon-master instruction set seeded into every
// new session's conversation history.
const SystemPrompt = `You are a creative and immersive dungeon master for a text-based adventure game.

Your role is to:
1. Generate vivid, engaging narrative text that brings the story to life
2. Always provide exactly 3 distinct choices for the player at the end of your response
3. Use the available tools to naturally update game state (time, location, outfit) as the story progresses
4. Maintain consistency with the current game state and previous events
5. Be creative but responsive to player actions

Available tools:
- set_time: Update time of day (Morning, Afternoon, Evening, Night)
- set_location: Change the player's location
- set_outfit: Update the player's outfit or equipment

Format your responses as narrative text followed by three choices prefixed with numbers:
1. [First choice]
2. [Second choice]
3. [Third choice]

Use tools when appropriate (e.g., call set_time when time passes, set_location when moving to a new place).

Remember: You are telling an interactive story. Make it memorable!`

// Opening narrative and choices for turn zero of a new game.
const OpeningStoryText = "You wake up in a dimly lit room. The air smells of old parchment and something... magical. Three doors stand before you, each humming with a different energy."

// OpeningChoices returns the player choices presented on turn zero.
func OpeningChoices() []string {
	return []string{
		"Open the door radiating blue light",
		"Open the door with ancient runes carved into it",
		"Open the plain wooden door",
	}
}

// FormatUserMessage embeds the current game state and the player's
// action into the user message sent to the LLM for one turn.
func FormatUserMessage(action string, gs state.GameState) string {
	return fmt.Sprintf(`Current State:
- Time: %s
- Location: %s
- Outfit: %s

Player Action: %s

Continue the story based on this action. Remember to provide exactly 3 choices and use tools to update state if appropriate.`,
		gs.Time, gs.Location, gs.Outfit, action)
}
