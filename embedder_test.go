package vecmatch

import (
	"context"
	"testing"

	"github.com/kailas-cloud/vecmatch/internal/domain"
)

func TestNoopEmbedder(t *testing.T) {
	_, err := noopEmbedder{}.Embed(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error from noopEmbedder")
	}
}

func TestAdaptEmbedder_Single(t *testing.T) {
	e := &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{Embedding: []float32{1, 2, 3}, PromptTokens: 5, TotalTokens: 10}, nil
	}}
	adapted := adaptEmbedder(e)
	if _, ok := adapted.(domain.BatchEmbedder); ok {
		t.Error("single embedder must not pretend to batch")
	}

	res, err := adapted.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 10 {
		t.Errorf("result = %+v", res)
	}
}

func TestAdaptEmbedder_Batch(t *testing.T) {
	e := &mockBatchEmbedder{batchFn: func(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(i), 1}
		}
		return BatchEmbeddingResult{Embeddings: out, TotalTokens: 7}, nil
	}}

	vecs, err := domain.EmbedProfile(context.Background(), adaptEmbedder(e), "self", "search")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecs.Self[0] != 0 || vecs.Search[0] != 1 {
		t.Errorf("vectors = %+v", vecs)
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Likes")
	if err != nil || st != Liked {
		t.Errorf("ParseStatus(Likes) = %q, %v", st, err)
	}
	if _, err := ParseStatus("meh"); err == nil {
		t.Error("expected error for unknown status")
	}
}
