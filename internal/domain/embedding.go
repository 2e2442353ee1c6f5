package domain

import (
	"context"
	"fmt"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "vecmatch:"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text for providers without a native batch API.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// ProfileVectors holds the two embeddings of a profile.
type ProfileVectors struct {
	Self        []float32
	Search      []float32
	TotalTokens int
}

// EmbedProfile embeds the self-description and the search-description together,
// using the batch API when the embedder has one.
func EmbedProfile(ctx context.Context, e Embedder, selfText, searchText string) (ProfileVectors, error) {
	texts := []string{selfText, searchText}

	var (
		res BatchEmbeddingResult
		err error
	)
	if be, ok := e.(BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = BatchFallback(ctx, e, texts)
	}
	if err != nil {
		return ProfileVectors{}, fmt.Errorf("embed profile: %w", err)
	}
	if len(res.Embeddings) != 2 {
		return ProfileVectors{}, fmt.Errorf("embed profile: got %d vectors, want 2: %w",
			len(res.Embeddings), ErrEmbeddingProviderError)
	}
	if len(res.Embeddings[0]) == 0 || len(res.Embeddings[0]) != len(res.Embeddings[1]) {
		return ProfileVectors{}, fmt.Errorf("embed profile: dims %d/%d: %w",
			len(res.Embeddings[0]), len(res.Embeddings[1]), ErrEmbeddingProviderError)
	}

	return ProfileVectors{
		Self:        res.Embeddings[0],
		Search:      res.Embeddings[1],
		TotalTokens: res.TotalTokens,
	}, nil
}
