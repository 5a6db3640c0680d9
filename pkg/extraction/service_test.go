package extraction

import (
	"context"
	"strings"
	"testing"
)

const longRationale = "This relationship is stated explicitly in the source text and repeated twice for emphasis."

// ---------------------------------------------------------------------------
// ParseResponse tests
// ---------------------------------------------------------------------------

func TestParseResponse_ValidJSON(t *testing.T) {
	raw := `{
		"entities": [
			{"name": "Ada Lovelace", "type": "Person", "confidence": 0.95},
			{"name": "Acme Corp", "type": "Organization", "confidence": 0.9}
		],
		"relations": [
			{
				"subject": "Ada Lovelace",
				"object": "Acme Corp",
				"type": "WORKS_FOR",
				"confidence": 0.85,
				"rationale": "` + longRationale + `"
			}
		]
	}`

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) != 2 {
		t.Errorf("expected 2 entities, got %d", len(result.Entities))
	}
	if len(result.Relations) != 1 {
		t.Errorf("expected 1 relation, got %d", len(result.Relations))
	}

	if result.Entities[0].Name != "Ada Lovelace" {
		t.Errorf("expected name 'Ada Lovelace', got %q", result.Entities[0].Name)
	}
	if result.Entities[0].Type != "Person" {
		t.Errorf("expected type Person, got %q", result.Entities[0].Type)
	}

	rel := result.Relations[0]
	if rel.Subject != "Ada Lovelace" || rel.Object != "Acme Corp" {
		t.Errorf("unexpected relation subject/object: %q -> %q", rel.Subject, rel.Object)
	}
	if rel.Type != "WORKS_FOR" {
		t.Errorf("expected type WORKS_FOR, got %q", rel.Type)
	}
}

func TestParseResponse_WithCodeFence(t *testing.T) {
	raw := "```json\n" + `{
		"entities": [
			{"name": "Grace Hopper", "type": "Person", "confidence": 0.9}
		],
		"relations": []
	}` + "\n```"

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entities) != 1 {
		t.Errorf("expected 1 entity, got %d", len(result.Entities))
	}
	if result.Entities[0].Name != "Grace Hopper" {
		t.Errorf("expected 'Grace Hopper', got %q", result.Entities[0].Name)
	}
}

func TestParseResponse_TruncatedJSON(t *testing.T) {
	raw := `{"entities": [{"name": "Nile River", "type": "Location", "confidence": 0.9}], "relations": [{"subject": "Nile River", "object": "Egypt", "type": "LOCATED_IN", "confidence": 0.8, "rationale": "` + longRationale

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) == 0 {
		t.Error("expected at least 1 repaired entity")
	}
}

func TestParseResponse_EmptyInput(t *testing.T) {
	result, err := ParseResponse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entities) != 0 || len(result.Relations) != 0 {
		t.Errorf("expected empty result for empty input")
	}
}

func TestParseResponse_OverlongNameFiltered(t *testing.T) {
	overlong := strings.Repeat("x", MaxNameLength+1)
	raw := `{
		"entities": [
			{"name": "Short Name", "type": "Person", "confidence": 0.9},
			{"name": "` + overlong + `", "type": "Person", "confidence": 0.7}
		],
		"relations": []
	}`

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) != 1 {
		t.Errorf("expected 1 entity (overlong name filtered), got %d", len(result.Entities))
	}
	if result.Entities[0].Name != "Short Name" {
		t.Errorf("expected 'Short Name', got %q", result.Entities[0].Name)
	}
}

func TestParseResponse_RelationDefaultConfidence(t *testing.T) {
	raw := `{
		"entities": [],
		"relations": [
			{
				"subject": "Luffy",
				"object": "Ace",
				"type": "KNOWS",
				"rationale": "` + longRationale + `"
			}
		]
	}`

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Relations) != 1 {
		t.Fatalf("expected 1 relation, got %d", len(result.Relations))
	}

	rel := result.Relations[0]
	if rel.Confidence != 0.7 {
		t.Errorf("expected default confidence 0.7, got %f", rel.Confidence)
	}
}

func TestParseResponse_ShortRationaleFiltered(t *testing.T) {
	raw := `{
		"entities": [],
		"relations": [
			{"subject": "A", "object": "B", "type": "KNOWS", "confidence": 0.8, "rationale": "too short"}
		]
	}`

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Relations) != 0 {
		t.Errorf("expected relation with short rationale to be filtered, got %d", len(result.Relations))
	}
}

func TestParseResponse_LegacyEntityArray(t *testing.T) {
	raw := `[
		{"name": "Marie Curie", "type": "Person", "confidence": 0.9},
		{"name": "Warsaw", "type": "Location", "confidence": 0.85}
	]`

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) != 2 {
		t.Errorf("expected 2 entities from legacy array, got %d", len(result.Entities))
	}
	if len(result.Relations) != 0 {
		t.Errorf("expected 0 relations from legacy array, got %d", len(result.Relations))
	}
}

func TestParseResponse_SkipsEmptyNames(t *testing.T) {
	raw := `{
		"entities": [
			{"name": "", "type": "Person", "confidence": 0.9},
			{"name": "Brook", "type": "Person", "confidence": 0.8}
		],
		"relations": [
			{"subject": "", "object": "Brook", "type": "KNOWS", "confidence": 0.7, "rationale": "` + longRationale + `"}
		]
	}`

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) != 1 {
		t.Errorf("expected 1 entity (empty name filtered), got %d", len(result.Entities))
	}
	if len(result.Relations) != 0 {
		t.Errorf("expected 0 relations (empty subject filtered), got %d", len(result.Relations))
	}
}

// ---------------------------------------------------------------------------
// BuildUserPrompt tests
// ---------------------------------------------------------------------------

func TestBuildUserPrompt_WithKnownEntities(t *testing.T) {
	prompt := BuildUserPrompt("Some text about engineers.", []string{"Ada Lovelace", "Grace Hopper"})

	if !strings.Contains(prompt, "KNOWN ENTITIES") {
		t.Error("expected KNOWN ENTITIES section in prompt")
	}
	if !strings.Contains(prompt, "Ada Lovelace, Grace Hopper") {
		t.Error("expected known entities list in prompt")
	}
	if !strings.Contains(prompt, "Some text about engineers.") {
		t.Error("expected text in prompt")
	}
}

func TestBuildUserPrompt_NoKnownEntities(t *testing.T) {
	prompt := BuildUserPrompt("Some text.", nil)

	if strings.Contains(prompt, "KNOWN ENTITIES") {
		t.Error("should NOT include KNOWN ENTITIES when none provided")
	}
	if !strings.Contains(prompt, "Some text.") {
		t.Error("expected text in prompt")
	}
}

func TestBuildUserPrompt_TruncatesLongText(t *testing.T) {
	longText := strings.Repeat("x", MaxTextLength+500)

	prompt := BuildUserPrompt(longText, nil)

	if strings.Contains(prompt, longText) {
		t.Error("expected text to be truncated")
	}
}

// ---------------------------------------------------------------------------
// Service tests
// ---------------------------------------------------------------------------

type stubCompleter struct {
	response string
	err      error
}

func (s stubCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, s.err
}

func TestService_IsEnabled(t *testing.T) {
	if (&Service{}).IsEnabled() {
		t.Error("expected disabled service with nil completer")
	}
	svc := NewService(stubCompleter{response: "{}"})
	if !svc.IsEnabled() {
		t.Error("expected enabled service with a completer")
	}
}

func TestService_ExtractFromText(t *testing.T) {
	svc := NewService(stubCompleter{response: `{
		"entities": [{"name": "Turing", "type": "Person", "confidence": 0.9}],
		"relations": []
	}`})

	result, err := svc.ExtractFromText(context.Background(), "Turing worked on computation.", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entities) != 1 || result.Entities[0].Name != "Turing" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestService_ExtractFromText_NoCompleter(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.ExtractFromText(context.Background(), "text", nil); err == nil {
		t.Error("expected error with no completer configured")
	}
}

func TestService_ExtractFromText_EmptyText(t *testing.T) {
	svc := NewService(stubCompleter{response: "{}"})
	result, err := svc.ExtractFromText(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entities) != 0 || len(result.Relations) != 0 {
		t.Error("expected empty result for empty text")
	}
}
