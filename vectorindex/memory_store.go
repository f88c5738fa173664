package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a brute-force cosine-similarity store. Vectors are assumed
// L2-normalized. It backs tests and single-process deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Record)}
}

func (s *MemoryStore) Upsert(ctx context.Context, collection string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[collection]
	for _, rec := range records {
		replaced := false
		for i := range existing {
			if existing[i].ID == rec.ID {
				existing[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, rec)
		}
	}
	s.collections[collection] = existing
	return nil
}

func (s *MemoryStore) Fetch(ctx context.Context, collection string, ids []string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []Record
	for _, rec := range s.collections[collection] {
		if wanted[rec.ID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.collections[collection]...), nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, vector []float32, limit int, filter map[string]any) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 5
	}
	var hits []Hit
	for _, rec := range s.collections[collection] {
		if !matchesFilter(rec.Payload, filter) {
			continue
		}
		hits = append(hits, Hit{Record: rec, Distance: 1 - dot(rec.Vector, vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection]), nil
}

func matchesFilter(payload, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := payload[key]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares payload scalars, coercing numerics so values that
// round-tripped through JSON (float64) still match their int originals.
func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
