// Package retrieval embeds documents into a vector store and splices the
// nearest neighbours of a question into the prompt.
package retrieval

import (
	"context"
	"errors"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the collection's configured dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidCollection is returned for collection names that are not
	// plain identifiers.
	ErrInvalidCollection = errors.New("invalid collection name")
)

// Point is one stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a search hit; Score is cosine similarity in [-1, 1].
type ScoredPoint struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// VectorStore holds points of one collection.
type VectorStore interface {
	Upsert(ctx context.Context, p Point) error
	// Search returns at most limit points ordered by descending score.
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)
}
