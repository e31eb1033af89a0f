// Package prompts builds the LLM prompts used for name disambiguation and
// RAID extraction.
package prompts

import (
	"fmt"
	"strings"

	"github.com/raidscribe/raidscribe-engine/pkg/models"
)

// NameCandidate carries a fuzzy candidate into the disambiguation prompt.
type NameCandidate struct {
	Name  string
	Email string
	Score float64
}

// NameResolutionSystemMessage instructs the model on the disambiguation task
// and the exact JSON shape expected back.
func NameResolutionSystemMessage() string {
	return `You are an assistant that matches names mentioned in meeting transcripts to a known project roster. Names may be nicknames, initials, misspellings, or reordered (family name first).

Respond with ONLY a JSON object in this exact format:
{"email": "<matched roster email or empty string if no confident match>", "confidence": <number between 0.0 and 1.0>, "rationale": "<one short sentence>"}

Never invent an email that is not on the roster. If no roster member is a plausible match, return an empty email with confidence 0.0.`
}

// BuildNameResolutionPrompt describes the roster, the ambiguous transcript
// name, and the fuzzy candidates already considered.
func BuildNameResolutionPrompt(transcriptName string, roster []*models.RosterEntry, candidates []NameCandidate) string {
	var prompt strings.Builder

	prompt.WriteString("# Name Disambiguation\n\n")
	prompt.WriteString(fmt.Sprintf("A meeting transcript mentions the name %q. Decide which roster member, if any, this refers to.\n\n", transcriptName))

	prompt.WriteString("## Project Roster\n\n")
	for _, entry := range roster {
		prompt.WriteString(fmt.Sprintf("- %s <%s>", entry.Name, entry.Email))
		if len(entry.Aliases) > 0 {
			prompt.WriteString(fmt.Sprintf(" (also known as: %s)", strings.Join(entry.Aliases, ", ")))
		}
		if entry.Role != nil {
			prompt.WriteString(fmt.Sprintf(" — %s", *entry.Role))
		}
		prompt.WriteString("\n")
	}

	if len(candidates) > 0 {
		prompt.WriteString("\n## Closest Fuzzy Matches\n\n")
		prompt.WriteString("String similarity already ranked these candidates (none reached the acceptance threshold):\n")
		for _, c := range candidates {
			prompt.WriteString(fmt.Sprintf("- %s <%s> (similarity %.2f)\n", c.Name, c.Email, c.Score))
		}
	}

	prompt.WriteString("\nConsider nicknames (Bob/Robert, Liz/Elizabeth), initials, transcription errors, and name-order variation.\n")

	return prompt.String()
}
