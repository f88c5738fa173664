package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// QdrantStore is a minimal REST client to Qdrant using cosine distance.
// Qdrant point ids must be UUIDs, so the logical id is hashed into a
// deterministic UUID and kept in the payload under "_id".
type QdrantStore struct {
	url     string
	apiKey  string
	client  *http.Client
	mu      sync.Mutex
	ensured map[string]bool
}

type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func NewQdrantStore(cfg QdrantConfig) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		ensured: make(map[string]bool),
	}
}

func pointID(logicalID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(logicalID)).String()
}

func (s *QdrantStore) ensureCollection(ctx context.Context, collection string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[collection] {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// 409 means the collection already exists, which is fine.
	if err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", collection), body, nil, http.StatusConflict); err != nil {
		return err
	}
	s.ensured[collection] = true
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, collection, len(records[0].Vector)); err != nil {
		return err
	}

	points := make([]map[string]any, len(records))
	for i, rec := range records {
		payload := map[string]any{"_id": rec.ID}
		for k, v := range rec.Payload {
			payload[k] = v
		}
		points[i] = map[string]any{
			"id":      pointID(rec.ID),
			"vector":  rec.Vector,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", collection), body, nil)
}

func (s *QdrantStore) Fetch(ctx context.Context, collection string, ids []string) ([]Record, error) {
	pids := make([]string, len(ids))
	for i, id := range ids {
		pids[i] = pointID(id)
	}
	req := map[string]any{"ids": pids, "with_payload": true}
	var resp struct {
		Result []qdrantPoint `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points", collection), req, &resp); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(resp.Result))
	for _, p := range resp.Result {
		records = append(records, p.toRecord())
	}
	return records, nil
}

func (s *QdrantStore) List(ctx context.Context, collection string) ([]Record, error) {
	var records []Record
	var offset any
	for {
		req := map[string]any{"limit": 256, "with_payload": true}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points         []qdrantPoint `json:"points"`
				NextPageOffset any           `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", collection), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			records = append(records, p.toRecord())
		}
		if resp.Result.NextPageOffset == nil {
			return records, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *QdrantStore) Query(ctx context.Context, collection string, vector []float32, limit int, filter map[string]any) ([]Hit, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if len(filter) > 0 {
		var must []map[string]any
		for key, value := range filter {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		req["filter"] = map[string]any{"must": must}
	}
	var resp struct {
		Result []qdrantScoredPoint `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", collection), req, &resp); err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(resp.Result))
	for _, p := range resp.Result {
		// Qdrant reports cosine similarity; flip it into a distance.
		hits = append(hits, Hit{Record: p.toRecord(), Distance: 1 - p.Score})
	}
	return hits, nil
}

func (s *QdrantStore) Count(ctx context.Context, collection string) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/count", collection), map[string]any{"exact": true}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

type qdrantPoint struct {
	ID      any            `json:"id"`
	Payload map[string]any `json:"payload"`
}

type qdrantScoredPoint struct {
	qdrantPoint
	Score float64 `json:"score"`
}

func (p qdrantPoint) toRecord() Record {
	rec := Record{Payload: map[string]any{}}
	for k, v := range p.Payload {
		if k == "_id" {
			rec.ID, _ = v.(string)
			continue
		}
		rec.Payload[k] = v
	}
	return rec
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body any, out any, okStatuses ...int) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		allowed := false
		for _, st := range okStatuses {
			if resp.StatusCode == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("qdrant %s %s failed: %s", method, path, resp.Status)
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}
