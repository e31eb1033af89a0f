package prompts

import (
	"fmt"
	"strings"
)

// RAIDExtractionSystemMessage instructs the model to extract structured RAID
// items and defines the JSON response contract.
func RAIDExtractionSystemMessage() string {
	return `You are an assistant that extracts project-management artifacts from meeting transcripts: Risks, Action items, Issues, and Decisions (RAID items).

Respond with ONLY a JSON object in this exact format:
{"items": [{"type": "<risk|action|issue|decision>", "title": "<short title>", "description": "<one or two sentences>", "severity": "<low|medium|high|critical or empty>", "owner": "<name as mentioned in the transcript, or empty>", "due_date": "<YYYY-MM-DD or empty>"}]}

Only extract items explicitly discussed. Keep owner names verbatim as spoken; do not normalize or guess full names.`
}

// BuildRAIDExtractionPrompt wraps the transcript for extraction.
func BuildRAIDExtractionPrompt(transcript string) string {
	var prompt strings.Builder

	prompt.WriteString("# Meeting Transcript\n\n")
	prompt.WriteString("Extract all RAID items from the following transcript.\n\n")
	prompt.WriteString("```\n")
	prompt.WriteString(transcript)
	if !strings.HasSuffix(transcript, "\n") {
		prompt.WriteString("\n")
	}
	prompt.WriteString("```\n")
	prompt.WriteString(fmt.Sprintf("\nThe transcript is %d characters long. Return an empty items array if nothing qualifies.\n", len(transcript)))

	return prompt.String()
}
