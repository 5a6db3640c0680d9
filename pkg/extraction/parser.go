package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseResponse parses the raw LLM response into an ExtractionResult.
// Handles markdown code fences and attempts repair on malformed JSON.
func ParseResponse(raw string) (*ExtractionResult, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return &ExtractionResult{}, nil
	}

	// Try parsing as unified {entities: [...], relations: [...]}
	var result ExtractionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return filterResult(&result), nil
	}

	// If that fails, try to parse as a raw array (entity-only response)
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &arr); err == nil {
		entities := parseEntityArray(cleaned)
		return &ExtractionResult{Entities: entities}, nil
	}

	// Last resort: regex repair
	entities := repairEntities(cleaned)
	relations := repairRelations(cleaned)

	if len(entities) == 0 && len(relations) == 0 {
		return nil, fmt.Errorf("extraction: failed to parse LLM response")
	}

	return &ExtractionResult{
		Entities:  entities,
		Relations: relations,
	}, nil
}

// stripCodeFence removes markdown code block wrappers (```json ... ```).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// filterResult validates and cleans parsed entities and relations,
// discarding malformed items rather than failing the whole extraction.
func filterResult(r *ExtractionResult) *ExtractionResult {
	out := &ExtractionResult{
		Entities:  make([]ExtractedEntity, 0, len(r.Entities)),
		Relations: make([]ExtractedRelation, 0, len(r.Relations)),
	}

	for _, e := range r.Entities {
		e.Name = strings.TrimSpace(e.Name)
		e.Type = strings.TrimSpace(e.Type)
		if e.Name == "" || e.Type == "" {
			continue
		}
		if len(e.Name) > MaxNameLength || len(e.Type) > MaxNameLength {
			continue
		}
		if e.Confidence <= 0 {
			e.Confidence = 0.8
		}
		out.Entities = append(out.Entities, e)
	}

	for _, rel := range r.Relations {
		rel.Subject = strings.TrimSpace(rel.Subject)
		rel.Object = strings.TrimSpace(rel.Object)
		rel.Type = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rel.Type), " ", "_"))
		rel.Rationale = strings.TrimSpace(rel.Rationale)

		if rel.Subject == "" || rel.Object == "" || rel.Type == "" {
			continue
		}
		if len(rel.Rationale) < MinRationaleLength {
			continue
		}
		if rel.Confidence <= 0 {
			rel.Confidence = 0.7
		}

		out.Relations = append(out.Relations, rel)
	}

	return out
}

// parseEntityArray parses a raw JSON array as entities.
func parseEntityArray(raw string) []ExtractedEntity {
	var items []struct {
		Name       string  `json:"name"`
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}

	entities := make([]ExtractedEntity, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		typ := strings.TrimSpace(item.Type)
		if name == "" || typ == "" || len(name) > MaxNameLength || len(typ) > MaxNameLength {
			continue
		}
		conf := item.Confidence
		if conf <= 0 {
			conf = 0.8
		}
		entities = append(entities, ExtractedEntity{
			Name:       name,
			Type:       typ,
			Confidence: conf,
		})
	}
	return entities
}

// Regex patterns for repair — match complete JSON objects.
var entityPattern = regexp.MustCompile(
	`\{\s*"name"\s*:\s*"[^"]+"\s*,\s*"type"\s*:\s*"[^"]+"\s*(?:,\s*"[^"]+"\s*:\s*(?:"[^"]*"|[\d.]+|\[[^\]]*\]|true|false|null))*\s*\}`,
)

var relationPattern = regexp.MustCompile(
	`\{\s*"subject"\s*:\s*"[^"]+"\s*,\s*"object"\s*:\s*"[^"]+"\s*,\s*"type"\s*:\s*"[^"]+"\s*(?:,\s*"[^"]+"\s*:\s*(?:"[^"]*"|[\d.]+|\[[^\]]*\]|\{[^}]*\}|true|false|null))*\s*\}`,
)

// repairEntities attempts to recover entity objects from malformed JSON.
func repairEntities(raw string) []ExtractedEntity {
	matches := entityPattern.FindAllString(raw, -1)
	entities := make([]ExtractedEntity, 0, len(matches))

	for _, m := range matches {
		var item struct {
			Name       string  `json:"name"`
			Type       string  `json:"type"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(m), &item); err != nil {
			continue
		}
		name := strings.TrimSpace(item.Name)
		typ := strings.TrimSpace(item.Type)
		if name == "" || typ == "" || len(name) > MaxNameLength || len(typ) > MaxNameLength {
			continue
		}
		conf := item.Confidence
		if conf <= 0 {
			conf = 0.8
		}
		entities = append(entities, ExtractedEntity{
			Name:       name,
			Type:       typ,
			Confidence: conf,
		})
	}

	return entities
}

// repairRelations attempts to recover relation objects from malformed JSON.
func repairRelations(raw string) []ExtractedRelation {
	matches := relationPattern.FindAllString(raw, -1)
	relations := make([]ExtractedRelation, 0, len(matches))

	for _, m := range matches {
		var item ExtractedRelation
		if err := json.Unmarshal([]byte(m), &item); err != nil {
			continue
		}
		item.Subject = strings.TrimSpace(item.Subject)
		item.Object = strings.TrimSpace(item.Object)
		item.Type = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(item.Type), " ", "_"))
		item.Rationale = strings.TrimSpace(item.Rationale)

		if item.Subject == "" || item.Object == "" || item.Type == "" {
			continue
		}
		if len(item.Rationale) < MinRationaleLength {
			continue
		}
		if item.Confidence <= 0 {
			item.Confidence = 0.7
		}
		relations = append(relations, item)
	}

	return relations
}
