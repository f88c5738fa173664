package vectorindex

import "context"

// Record is one stored point: a logical id, its embedding, and a payload of
// scalar metadata that survives round-trips through the backing store.
type Record struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Hit is a retrieved record with its distance to the query vector
// (1 - cosine similarity, lower is closer).
type Hit struct {
	Record
	Distance float64
}

// Store is the embedding-similarity search service boundary. Implementations
// create collections on first upsert. Filter is a set of exact-match payload
// constraints combined with AND semantics.
type Store interface {
	Upsert(ctx context.Context, collection string, records []Record) error
	Fetch(ctx context.Context, collection string, ids []string) ([]Record, error)
	List(ctx context.Context, collection string) ([]Record, error)
	Query(ctx context.Context, collection string, vector []float32, limit int, filter map[string]any) ([]Hit, error)
	Count(ctx context.Context, collection string) (int, error)
}
