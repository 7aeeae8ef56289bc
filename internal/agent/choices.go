package agent

import (
	"strings"
)

// choicePrefixes are the numbered-list markers the model is expected
// to use when presenting choices.
var choicePrefixes = []string{".", ")", ":"}

// FallbackChoices returns the fixed choice list used when the
// narrative text does not contain three recognizable numbered choices.
func FallbackChoices() []string {
	return []string{
		"Continue exploring",
		"Examine your surroundings carefully",
		"Take a different approach",
	}
}

// ExtractChoices scans narrative text for three numbered player
// choices. Lines prefixed "1.", "1)" or "1:" (and likewise for 2 and
// 3) are captured into their numeric slot regardless of the order they
// appear in the text. If fewer than three slots are filled, partial
// results are discarded in favor of the fallback list. Always returns
// exactly three entries.
func ExtractChoices(text string) []string {
	var slots [3]string
	var found [3]bool

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
	slot:
		for i := 0; i < 3; i++ {
			for _, sep := range choicePrefixes {
				prefix := string(rune('1'+i)) + sep
				if rest, ok := strings.CutPrefix(trimmed, prefix); ok {
					slots[i] = strings.TrimSpace(rest)
					found[i] = true
					break slot
				}
			}
		}
	}

	if !found[0] || !found[1] || !found[2] {
		return FallbackChoices()
	}
	return slots[:]
}
