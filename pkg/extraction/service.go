package extraction

import (
	"context"
	"fmt"

	"github.com/kittclouds/memgraph/pkg/llm"
)

// Service coordinates entity and relation extraction from text. It
// composes with pkg/llm.Completer for the actual completion call, the
// way the teacher's extractor composed with pkg/batch.Service.
type Service struct {
	completer llm.Completer
}

// NewService creates an extraction service backed by the given completer.
// A nil completer is valid — callers check IsEnabled before use, matching
// pkg/memory.Extractor.enabled.
func NewService(c llm.Completer) *Service {
	return &Service{completer: c}
}

// IsEnabled reports whether a completer is configured.
func (s *Service) IsEnabled() bool {
	return s.completer != nil
}

// ExtractFromText performs a single LLM call to extract both entities and
// relations from the given text. knownEntities primes the LLM with
// already-upserted entity names so repeat mentions resolve to the same
// entity instead of duplicating it.
func (s *Service) ExtractFromText(ctx context.Context, text string, knownEntities []string) (*ExtractionResult, error) {
	if s.completer == nil {
		return nil, fmt.Errorf("extraction: no completer configured")
	}

	text = truncateText(text)
	if text == "" {
		return &ExtractionResult{}, nil
	}

	userPrompt := BuildUserPrompt(text, knownEntities)

	raw, err := s.completer.Complete(ctx, SystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("extraction: completion failed: %w", err)
	}

	result, err := ParseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("extraction: parse failed: %w", err)
	}

	return result, nil
}

// truncateText limits text length to MaxTextLength.
func truncateText(text string) string {
	if len(text) > MaxTextLength {
		return text[:MaxTextLength]
	}
	return text
}
