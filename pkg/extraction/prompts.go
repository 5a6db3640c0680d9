package extraction

import (
	"fmt"
	"strings"
)

// MaxTextLength is the maximum number of characters sent to the LLM per
// call, carried from the teacher's combined-prompt extractor.
const MaxTextLength = 8000

// SystemPrompt instructs the LLM to return structured JSON only.
const SystemPrompt = `You are an entity and relationship extraction assistant for a knowledge graph.
Extract named entities AND relationships between them from the given text.
Return ONLY a valid JSON object with two arrays: "entities" and "relations".
No markdown, no explanation. Start with { and end with }.`

// BuildUserPrompt constructs the combined extraction prompt. knownEntities
// primes the LLM with entity names already upserted for this conversation,
// so repeat mentions resolve to the same entity instead of a duplicate.
func BuildUserPrompt(text string, knownEntities []string) string {
	truncated := text
	if len(truncated) > MaxTextLength {
		truncated = truncated[:MaxTextLength]
	}

	var sb strings.Builder
	sb.WriteString("Extract named entities AND relationships from this text. ")
	sb.WriteString("Return a JSON object with two arrays: \"entities\" and \"relations\".\n\n")

	if len(knownEntities) > 0 {
		sb.WriteString("KNOWN ENTITIES (reuse these names exactly when the text refers to them):\n")
		sb.WriteString(strings.Join(knownEntities, ", "))
		sb.WriteString("\n\n")
	}

	sb.WriteString("=== ENTITIES ===\n")
	sb.WriteString("Each entity object:\n")
	sb.WriteString("- \"name\": Canonical name (string)\n")
	sb.WriteString(fmt.Sprintf("- \"type\": Typically one of %s, but any short free-form type is accepted\n",
		strings.Join(WellKnownEntityTypes, ", ")))
	sb.WriteString("- \"confidence\": 0.0-1.0 (number)\n\n")

	sb.WriteString("=== RELATIONS ===\n")
	sb.WriteString("Each relation object:\n")
	sb.WriteString("- \"subject\": Entity name the relationship originates from (string)\n")
	sb.WriteString("- \"object\": Entity name the relationship points to (string)\n")
	sb.WriteString(fmt.Sprintf("- \"type\": Verb-like predicate, e.g. %s\n", strings.Join(WellKnownRelationTypes, ", ")))
	sb.WriteString(fmt.Sprintf("- \"rationale\": At least %d characters of natural-language justification quoting or paraphrasing the source text (string)\n", MinRationaleLength))
	sb.WriteString("- \"confidence\": 0.0-1.0 (number)\n\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("1. Only extract entities that are named, not generic terms.\n")
	sb.WriteString("2. Reuse an existing entity name exactly rather than inventing a near-duplicate.\n")
	sb.WriteString("3. Every relation needs a rationale long enough to justify it on its own.\n")
	sb.WriteString("4. confidence >= 0.8 for explicitly stated facts, 0.5-0.8 for facts implied by context.\n\n")

	sb.WriteString("TEXT:\n")
	sb.WriteString(truncated)

	return sb.String()
}
