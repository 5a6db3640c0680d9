package search

import (
	"context"
	"strings"
	"time"
)

// KeywordField names the field a keyword search substring-matches
// against — spec 4.7's "substring match on a named field; no scoring".
type KeywordField int

const (
	KeywordEntityName KeywordField = iota
	KeywordEntityType
	KeywordMessageContent
)

// Keyword runs an in-process substring match over the named field —
// there is no dedicated index for this, matching spec 4.7's "no
// scoring" contract (insertion order is preserved).
func (e *Engine) Keyword(ctx context.Context, field KeywordField, conversationID, substring string) (*Result, error) {
	start := time.Now()
	if err := wrapDeadline("Keyword", ctx); err != nil {
		return nil, err
	}
	needle := strings.ToLower(substring)

	var hits []Hit
	switch field {
	case KeywordEntityName, KeywordEntityType:
		entities, err := e.s.ListEntities("")
		if err != nil {
			return nil, err
		}
		for _, ent := range entities {
			target := ent.Name
			if field == KeywordEntityType {
				target = ent.Type
			}
			if strings.Contains(strings.ToLower(target), needle) {
				hits = append(hits, Hit{DocID: ent.ID})
			}
		}
	case KeywordMessageContent:
		messages, err := e.s.ListMessages(conversationID)
		if err != nil {
			return nil, err
		}
		for _, m := range messages {
			if strings.Contains(strings.ToLower(m.Content), needle) {
				hits = append(hits, Hit{DocID: m.ID})
			}
		}
	}

	out, truncated := truncate(hits, e.cfg.TopN, deadlineExceeded(ctx))
	return &Result{
		Results:   out,
		Total:     len(hits),
		TimeMS:    elapsedMS(start),
		Engine:    "keyword",
		Truncated: truncated,
	}, nil
}
