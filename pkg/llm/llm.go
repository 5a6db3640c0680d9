// Package llm defines the three black-box external boundaries the engine
// calls into — embedding, completion, and reranking (spec §6) — as Go
// interfaces, and provides one concrete HTTP-backed implementation against
// OpenRouter's chat-completions API. Grounded on pkg/batch/service.go's
// provider-switch shape, rewritten against net/http since the WASM-only
// syscall/js fetch path the teacher used has no server-process analog.
package llm

import "context"

// Embedder is the embed(text) -> vector[D] black box (spec §6). Callers
// never see provider details; pkg/embedding wraps this with caching and
// normalization.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer is the llm(prompt, params) -> text black box used for entity
// extraction and rationale generation. Failures are tolerated by callers
// per spec §7 (ExternalUnavailable).
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Reranker is the rerank(query, [doc_text]) -> [score] black box (spec §6).
// Score scale is unspecified; config.RerankStrategy controls interpretation.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]float64, error)
}

// EmbedderFunc adapts a plain function to the Embedder interface, the way
// pkg/embedding.Func already does for its own boundary.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

// RerankerFunc adapts a plain function to the Reranker interface.
type RerankerFunc func(ctx context.Context, query string, docs []string) ([]float64, error)

func (f RerankerFunc) Rerank(ctx context.Context, query string, docs []string) ([]float64, error) {
	return f(ctx, query, docs)
}
