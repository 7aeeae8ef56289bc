package state

// Time of day values the set_time tool is expected to use. The model
// is instructed to pick one of these, but values are stored verbatim
// and never validated against this list.
const (
	TimeMorning   = "Morning"
	TimeAfternoon = "Afternoon"
	TimeEvening   = "Evening"
	TimeNight     = "Night"
)

// Starting state for every new game session.
const (
	StartingTime     = TimeMorning
	StartingLocation = "Mysterious Room"
	StartingOutfit   = "Traveler's Cloak"
)

// GameState is the mutable world state of one game session. It is
// owned exclusively by a single turn while that turn is processed.
type GameState struct {
	Time     string `json:"time"`     // time of day, e.g. "Morning"
	Location string `json:"location"` // free text
	Outfit   string `json:"outfit"`   // free text
}

// NewGameState returns the initial state for a fresh session.
func NewGameState() GameState {
	return GameState{
		Time:     StartingTime,
		Location: StartingLocation,
		Outfit:   StartingOutfit,
	}
}

// TurnRecord is one completed player-action/narrative exchange.
type TurnRecord struct {
	TurnNumber int       `json:"turn_number"`
	StoryText  string    `json:"story_text"`
	Choices    []string  `json:"choices"`
	GameState  GameState `json:"game_state"`
}
