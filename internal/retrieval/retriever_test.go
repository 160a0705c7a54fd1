package retrieval_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/retrieval"
)

// keywordEmbedder maps text onto fixed axes by keyword so neighbours are predictable.
type keywordEmbedder struct {
	err   error
	calls int
}

var axes = []string{"cat", "dog", "car", "tree"}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	v := make([]float32, len(axes))
	for i, k := range axes {
		if strings.Contains(strings.ToLower(text), k) {
			v[i] = 1
		}
	}
	v[len(v)-1] += 0.01
	return v, nil
}

func newRetriever(t *testing.T, e *keywordEmbedder) *retrieval.Retriever {
	t.Helper()
	return retrieval.NewRetriever(e, newStore(t, len(axes)))
}

func TestRetriever_AddAndFind(t *testing.T) {
	r := newRetriever(t, &keywordEmbedder{})
	ctx := context.Background()

	id, err := r.AddDocument(ctx, "The cat sleeps on the sofa.")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "document id should be a UUID")

	_, err = r.AddDocument(ctx, "A dog barks at the car.")
	require.NoError(t, err)

	hits, err := r.FindSimilarDocuments(ctx, "where is the cat?")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, id, hits[0].ID)
	assert.Equal(t, "The cat sleeps on the sofa.", hits[0].Payload["content"])
}

func TestRetriever_TopKLimit(t *testing.T) {
	r := newRetriever(t, &keywordEmbedder{})
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := r.AddDocument(ctx, "cat fact")
		require.NoError(t, err)
	}

	hits, err := r.FindSimilarDocuments(ctx, "cat")
	require.NoError(t, err)
	assert.Len(t, hits, retrieval.DefaultTopK)
}

func TestRetriever_EmptyIndex(t *testing.T) {
	r := newRetriever(t, &keywordEmbedder{})

	hits, err := r.FindSimilarDocuments(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	prompt, err := r.Augment(context.Background(), "anything")
	require.NoError(t, err)
	assert.Contains(t, prompt, "question: anything")
	assert.True(t, strings.HasSuffix(prompt, "context: []"), prompt)
}

func TestRetriever_AugmentPrompt(t *testing.T) {
	r := newRetriever(t, &keywordEmbedder{})
	ctx := context.Background()
	_, err := r.AddDocument(ctx, "Trees grow slowly.")
	require.NoError(t, err)

	prompt, err := r.Augment(ctx, "How fast do trees grow?")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, `Answer the given question using the context. If there is no answer in the context, say "I don't know". Don't make up the answer instead.`))
	assert.Contains(t, prompt, "question: How fast do trees grow?")
	assert.Contains(t, prompt, "Trees grow slowly.")
}

func TestRetriever_EmbedError(t *testing.T) {
	e := &keywordEmbedder{err: errors.New("quota exceeded")}
	r := newRetriever(t, e)

	_, err := r.AddDocument(context.Background(), "cat")
	assert.ErrorContains(t, err, "quota exceeded")
	assert.ErrorIs(t, err, provider.ErrEmbeddingFailed)

	_, err = r.Augment(context.Background(), "cat")
	assert.ErrorContains(t, err, "embed query")
	assert.ErrorIs(t, err, provider.ErrEmbeddingFailed)
}

type brokenStore struct{ err error }

func (s brokenStore) Upsert(context.Context, retrieval.Point) error { return s.err }

func (s brokenStore) Search(context.Context, []float32, int) ([]retrieval.ScoredPoint, error) {
	return nil, s.err
}

func TestRetriever_StoreErrorIsNotEmbeddingFailure(t *testing.T) {
	storeErr := errors.New("decode vector: short blob")
	r := retrieval.NewRetriever(&keywordEmbedder{}, brokenStore{err: storeErr})

	_, err := r.Augment(context.Background(), "cat")
	require.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, provider.ErrEmbeddingFailed)
}
