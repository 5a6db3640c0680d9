// Package memoryagent implements C9: the ingestion entry point that
// writes a user/agent message pair, summarizes it into a Memory, and
// best-effort extracts entities and relationships from the combined
// text via the external LLM boundary. Grounded on pkg/chat.Service's
// AddMessage (the teacher's async-extraction-after-storage idiom,
// re-themed from thread/NPC extraction to conversation/entity
// extraction) and re-homed onto pkg/graphstore + pkg/extraction.
package memoryagent

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/logx"
	"github.com/kittclouds/memgraph/internal/store"
	"github.com/kittclouds/memgraph/pkg/embedding"
	"github.com/kittclouds/memgraph/pkg/extraction"
	"github.com/kittclouds/memgraph/pkg/graphstore"
	"github.com/kittclouds/memgraph/pkg/viewmgr"
)

var log = logx.New("memoryagent")

// maxSummaryLength bounds the synthesized Memory.Summary field.
const maxSummaryLength = 400

// Agent composes C1 (store), C5 (graphstore), C2 (embedding), the
// extraction boundary, and C3 (view manager) into the single
// store_conversation ingestion call spec 4.9 describes.
type Agent struct {
	s         *store.Store
	gs        *graphstore.Store
	embed     *embedding.Cache
	extractor *extraction.Service
	views     *viewmgr.Manager
	cfg       config.Config
}

func New(s *store.Store, gs *graphstore.Store, embed *embedding.Cache, extractor *extraction.Service, views *viewmgr.Manager, cfg config.Config) *Agent {
	return &Agent{s: s, gs: gs, embed: embed, extractor: extractor, views: views, cfg: cfg}
}

// StoreConversationResult is step 8's return envelope.
type StoreConversationResult struct {
	ConversationID    string
	UserKey           string
	AgentKey          string
	MemoryKey         string
	EntityCount       int
	RelationshipCount int
}

// StoreConversation implements spec 4.9's store_conversation. Steps 5/6
// (LLM extraction) are best-effort: failures are logged, not returned —
// the raw messages and memory are already committed by the time
// extraction runs.
func (a *Agent) StoreConversation(ctx context.Context, userMsg, agentMsg, conversationID string, metadata map[string]any, referenceTime *int64) (*StoreConversationResult, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	now := time.Now().Unix()
	if referenceTime != nil {
		now = *referenceTime
	}

	tail, err := a.s.TailMessage(conversationID)
	if err != nil {
		return nil, err
	}
	var prevKey string
	if tail != nil {
		prevKey = tail.ID
	}

	userEmb, err := a.embed.Embed(ctx, userMsg)
	if err != nil {
		return nil, err
	}
	userID := uuid.NewString()
	user := &store.Message{
		ID: userID, Role: "user", Content: userMsg, ConversationID: conversationID,
		PreviousMessageKey: prevKey, Embedding: userEmb,
		CreatedAt: now, ValidAt: now,
	}

	agentEmb, err := a.embed.Embed(ctx, agentMsg)
	if err != nil {
		return nil, err
	}
	agentID := uuid.NewString()
	agentM := &store.Message{
		ID: agentID, Role: "agent", Content: agentMsg, ConversationID: conversationID,
		PreviousMessageKey: userID, Embedding: agentEmb,
		CreatedAt: now, ValidAt: now,
	}

	combined := userMsg + "\n" + agentMsg
	summary := combined
	if len(summary) > maxSummaryLength {
		summary = summary[:maxSummaryLength]
	}
	memEmb, err := a.embed.Embed(ctx, combined)
	if err != nil {
		return nil, err
	}
	memoryID := uuid.NewString()
	memory := &store.Memory{
		ID: memoryID, Content: combined, Summary: summary, ConversationID: conversationID,
		Metadata: metadata, CreatedAt: now, ValidAt: now,
	}

	err = a.s.Transaction(ctx, func(tx *sql.Tx) error {
		if err := a.s.CreateMessage(tx, user); err != nil {
			return err
		}
		if err := a.s.CreateMessage(tx, agentM); err != nil {
			return err
		}
		return a.s.CreateMemory(tx, memory)
	})
	if err != nil {
		return nil, err
	}

	if err := a.s.UpsertVector("messages", userID, userEmb); err != nil {
		return nil, err
	}
	if err := a.s.UpsertVector("messages", agentID, agentEmb); err != nil {
		return nil, err
	}
	if err := a.s.UpsertVector("memories", memoryID, memEmb); err != nil {
		return nil, err
	}

	entityCount, relCount := a.extractAndLink(ctx, combined, now)

	if a.views != nil {
		if err := a.ensureViews(ctx); err != nil {
			log.Warnf("ensure lexical views failed: %v", err)
		}
	}

	return &StoreConversationResult{
		ConversationID:    conversationID,
		UserKey:           userID,
		AgentKey:          agentID,
		MemoryKey:         memoryID,
		EntityCount:       entityCount,
		RelationshipCount: relCount,
	}, nil
}

// extractAndLink runs steps 5/6: LLM entity/relation extraction,
// upserting through C5. Every failure is swallowed per spec 4.9 —
// extraction is tolerated as degraded (errkind.ExternalUnavailable),
// never fatal to ingestion.
func (a *Agent) extractAndLink(ctx context.Context, text string, now int64) (entityCount, relCount int) {
	if a.extractor == nil || !a.extractor.IsEnabled() {
		return 0, 0
	}

	known, err := a.knownEntityNames()
	if err != nil {
		log.Warnf("list known entities failed: %v", err)
	}

	result, err := a.extractor.ExtractFromText(ctx, text, known)
	if err != nil {
		log.Warnf("extraction failed, continuing without entities: %v", err)
		return 0, 0
	}

	byName := make(map[string]string, len(result.Entities))
	for _, e := range result.Entities {
		emb, embErr := a.embed.Embed(ctx, e.Name)
		if embErr != nil {
			log.Warnf("embed entity %q failed: %v", e.Name, embErr)
			emb = nil
		}
		id, upErr := a.gs.UpsertEntity(e.Name, e.Type, emb, nil, now)
		if upErr != nil {
			log.Warnf("upsert entity %q failed: %v", e.Name, upErr)
			continue
		}
		byName[e.Name] = id
		entityCount++
	}

	for _, r := range result.Relations {
		fromID, ok := byName[r.Subject]
		if !ok {
			continue
		}
		toID, ok := byName[r.Object]
		if !ok {
			continue
		}
		_, _, relErr := a.gs.CreateRelationship(fromID, toID, r.Type, r.Rationale, r.Attributes, r.Confidence, nil, now)
		if relErr != nil {
			log.Warnf("create relationship %s-%s-%s failed: %v", r.Subject, r.Type, r.Object, relErr)
			continue
		}
		relCount++
	}

	return entityCount, relCount
}

func (a *Agent) knownEntityNames() ([]string, error) {
	entities, err := a.s.ListEntities("")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	return names, nil
}

func (a *Agent) ensureViews(ctx context.Context) error {
	if err := a.views.EnsureView(ctx, "default", "messages_fts",
		viewmgr.Config{Collection: "messages", Fields: []string{"content"}}, a.cfg.DefaultViewPolicy); err != nil {
		return fmt.Errorf("messages_fts: %w", err)
	}
	if err := a.views.EnsureView(ctx, "default", "memories_fts",
		viewmgr.Config{Collection: "memories", Fields: []string{"content", "summary"}}, a.cfg.DefaultViewPolicy); err != nil {
		return fmt.Errorf("memories_fts: %w", err)
	}
	if err := a.views.EnsureView(ctx, "default", "entities_fts",
		viewmgr.Config{Collection: "entities", Fields: []string{"name", "type"}}, a.cfg.DefaultViewPolicy); err != nil {
		return fmt.Errorf("entities_fts: %w", err)
	}
	return nil
}
