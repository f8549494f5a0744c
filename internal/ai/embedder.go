package ai

import "context"

// Embedder is the boundary contract for the embedding service. Vectors are
// deterministic for a fixed model version.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingService binds an OpenAI-compatible client to one embedding model
// and splits large batches to respect provider limits.
type EmbeddingService struct {
	client    *OpenAICompatibleClient
	cfg       EmbeddingConfig
	batchSize int
}

func NewEmbeddingService(client *OpenAICompatibleClient, cfg EmbeddingConfig, batchSize int) *EmbeddingService {
	if batchSize <= 0 {
		batchSize = 10 // DashScope and similar APIs often limit batch size
	}
	return &EmbeddingService{client: client, cfg: cfg, batchSize: batchSize}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.client.Embed(ctx, s.cfg, text)
}

func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32
	for i := 0; i < len(texts); i += s.batchSize {
		end := i + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.client.EmbedBatch(ctx, s.cfg, texts[i:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}
