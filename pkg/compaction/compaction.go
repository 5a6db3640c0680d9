// Package compaction implements C12: rolling up a message window into
// a single summary node that source searches can still find, while
// point-in-time queries before the rollup keep seeing the originals.
// Grounded on pkg/memoryagent's summarize-then-embed-then-persist shape,
// re-themed from a single turn to an arbitrary message window, and on
// pkg/extraction.Service's completer-boundary usage.
package compaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/logx"
	"github.com/kittclouds/memgraph/internal/store"
	"github.com/kittclouds/memgraph/pkg/embedding"
	"github.com/kittclouds/memgraph/pkg/llm"
	"github.com/kittclouds/memgraph/pkg/viewmgr"
)

var log = logx.New("compaction")

const systemPrompt = `You summarize a sequence of conversation messages into a single
concise paragraph that preserves every fact a reader would need, without
quoting the messages verbatim.`

// maxSummaryLength bounds the persisted summary text.
const maxSummaryLength = 2000

// Engine composes the external completer, the embedding cache, the
// store, and the view manager to execute spec 4.12's compact()
// operation. views may be nil, disabling the compactions_fts view
// refresh (a compacted rollup is then only reachable by vector/exact
// lookup, not lexical search).
type Engine struct {
	s         *store.Store
	embed     *embedding.Cache
	completer llm.Completer
	views     *viewmgr.Manager
	cfg       config.Config
}

func New(s *store.Store, embed *embedding.Cache, completer llm.Completer, views *viewmgr.Manager, cfg config.Config) *Engine {
	return &Engine{s: s, embed: embed, completer: completer, views: views, cfg: cfg}
}

// Result is compact()'s return envelope.
type Result struct {
	CompactionID string
	SourceKeys   []string
	Summary      string
}

// Compact fetches every message in conversationID valid within
// [from, to], summarizes it via the external completer, embeds the
// summary, inserts a Compaction Record, and invalidates every source
// message at the compaction timestamp. A window with no messages is a
// no-op: (nil, nil).
func (e *Engine) Compact(ctx context.Context, conversationID string, from, to int64) (*Result, error) {
	msgs, err := e.windowMessages(conversationID, from, to)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	transcript := renderTranscript(msgs)
	summary, err := e.completer.Complete(ctx, systemPrompt, transcript)
	if err != nil {
		return nil, fmt.Errorf("compaction: summarize failed: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if len(summary) > maxSummaryLength {
		summary = summary[:maxSummaryLength]
	}

	emb, err := e.embed.Embed(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("compaction: embed summary failed: %w", err)
	}

	sourceKeys := make([]string, len(msgs))
	for i, m := range msgs {
		sourceKeys[i] = m.ID
	}

	now := time.Now().Unix()
	c := &store.Compaction{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SourceKeys:     sourceKeys,
		Summary:        summary,
		CreatedAt:      now,
		ValidAt:        now,
	}
	if err := e.s.InsertCompaction(nil, c); err != nil {
		return nil, err
	}
	if err := e.s.UpsertVector("compactions", c.ID, emb); err != nil {
		return nil, err
	}

	// Invalidate the sources last: search must never observe a gap
	// where neither the originals nor the rollup are valid.
	for _, id := range sourceKeys {
		if err := e.s.InvalidateMessage(id, now); err != nil {
			return nil, fmt.Errorf("compaction: invalidate source %s: %w", id, err)
		}
	}

	if e.views != nil {
		if err := e.views.EnsureView(ctx, "default", "compactions_fts",
			viewmgr.Config{Collection: "compactions", Fields: []string{"summary"}}, e.cfg.DefaultViewPolicy); err != nil {
			log.Warnf("ensure compactions_fts view failed: %v", err)
		}
	}

	return &Result{CompactionID: c.ID, SourceKeys: sourceKeys, Summary: summary}, nil
}

// windowMessages returns conversationID's messages whose valid_at falls
// in [from, to], still-valid at call time (not already compacted away).
func (e *Engine) windowMessages(conversationID string, from, to int64) ([]*store.Message, error) {
	all, err := e.s.ListMessages(conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]*store.Message, 0, len(all))
	for _, m := range all {
		if m.InvalidAt != nil {
			continue
		}
		if m.ValidAt < from || m.ValidAt > to {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func renderTranscript(msgs []*store.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
