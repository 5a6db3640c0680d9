package search

import (
	"context"
	"time"
)

// TagSearch runs spec 4.7's tag method over entities: "intersection or
// union over a persistent-indexed tags array; no scoring (returns
// insertion order)". The store schema has no dedicated tags column, so
// tags live in Entity.Extra["tags"] (a []any of strings) — the same
// free-form bag C5's upsert_entity merges by union on repeat mention.
func (e *Engine) TagSearch(ctx context.Context, entityType string, tags []string, union bool) (*Result, error) {
	start := time.Now()
	if err := wrapDeadline("TagSearch", ctx); err != nil {
		return nil, err
	}

	entities, err := e.s.ListEntities(entityType)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, ent := range entities {
		entTags := extraTags(ent.Extra)
		if tagsMatch(entTags, tags, union) {
			hits = append(hits, Hit{DocID: ent.ID})
		}
	}

	out, truncated := truncate(hits, e.cfg.TopN, deadlineExceeded(ctx))
	return &Result{
		Results:   out,
		Total:     len(hits),
		TimeMS:    elapsedMS(start),
		Engine:    "tag",
		Truncated: truncated,
	}, nil
}

func extraTags(extra map[string]any) []string {
	if extra == nil {
		return nil
	}
	raw, ok := extra["tags"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// tagsMatch reports whether entTags satisfies the requested tag set:
// union means any overlap, intersection means every requested tag is
// present.
func tagsMatch(entTags, want []string, union bool) bool {
	if len(want) == 0 {
		return true
	}
	has := make(map[string]bool, len(entTags))
	for _, t := range entTags {
		has[t] = true
	}
	if union {
		for _, w := range want {
			if has[w] {
				return true
			}
		}
		return false
	}
	for _, w := range want {
		if !has[w] {
			return false
		}
	}
	return true
}
