package embedder

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkLocalProvider_GenerateEmbedding(b *testing.B) {
	provider, _ := NewLocalProvider(nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = provider.GenerateEmbedding(ctx, EmbeddingRequest{
			Text: fmt.Sprintf("benchmark text %d", i),
		})
	}
}

func BenchmarkCache_Get(b *testing.B) {
	cache := NewCache(1000)
	key := CacheKey(ProviderLocal, "m", "hit")
	cache.Set(key, &Embedding{Vector: make([]float32, LocalDimension)})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Get(key)
	}
}
