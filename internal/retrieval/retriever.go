package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/petasbytes/go-assistant/internal/provider"
)

const (
	DefaultCollection = "training"
	DefaultTopK       = 5
)

const promptTemplate = `Answer the given question using the context. If there is no answer in the context, say "I don't know". Don't make up the answer instead.
question: %s
context: %s`

// Retriever indexes documents and augments questions with their nearest
// neighbours.
type Retriever struct {
	Embedder provider.Embedder
	Store    VectorStore
	// TopK defaults to DefaultTopK.
	TopK int
}

func NewRetriever(e provider.Embedder, s VectorStore) *Retriever {
	return &Retriever{Embedder: e, Store: s, TopK: DefaultTopK}
}

// AddDocument embeds content and stores it under a fresh UUID.
func (r *Retriever) AddDocument(ctx context.Context, content string) (string, error) {
	vec, err := r.Embedder.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embed document: %w: %w", provider.ErrEmbeddingFailed, err)
	}
	id := uuid.NewString()
	if err := r.Store.Upsert(ctx, Point{
		ID:      id,
		Vector:  vec,
		Payload: map[string]any{"content": content},
	}); err != nil {
		return "", err
	}
	log.Info().Str("id", id).Int("bytes", len(content)).Msg("retrieval: document added")
	return id, nil
}

// FindSimilarDocuments returns the TopK nearest documents to text. An empty
// index yields an empty, non-nil slice.
func (r *Retriever) FindSimilarDocuments(ctx context.Context, text string) ([]ScoredPoint, error) {
	vec, err := r.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", provider.ErrEmbeddingFailed, err)
	}
	k := r.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	hits, err := r.Store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search %d neighbours: %w", k, err)
	}
	if hits == nil {
		hits = []ScoredPoint{}
	}
	return hits, nil
}

// Augment wraps question in the answer-from-context prompt.
func (r *Retriever) Augment(ctx context.Context, question string) (string, error) {
	hits, err := r.FindSimilarDocuments(ctx, question)
	if err != nil {
		return "", err
	}
	log.Debug().Int("hits", len(hits)).Msg("retrieval: context assembled")
	return BuildPrompt(question, hits), nil
}

// BuildPrompt renders the prompt for question and its context hits.
func BuildPrompt(question string, hits []ScoredPoint) string {
	return fmt.Sprintf(promptTemplate, question, formatContext(hits))
}

func formatContext(hits []ScoredPoint) string {
	if len(hits) == 0 {
		return "[]"
	}
	var b strings.Builder
	for _, h := range hits {
		content, _ := h.Payload["content"].(string)
		fmt.Fprintf(&b, "\n- (id=%s score=%.4f) %s", h.ID, h.Score, content)
	}
	return b.String()
}
