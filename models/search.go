package models

// ScoredChunk pairs a retrieved chunk with its nearest-neighbor distance
// (lower is closer).
type ScoredChunk struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

// SearchResults is the outcome of one content search. Err and Results are
// mutually exclusive: an error result carries no chunks.
type SearchResults struct {
	Results []ScoredChunk `json:"results,omitempty"`
	Err     string        `json:"error,omitempty"`
}

// ErrorResults builds a result set that carries only an error message.
func ErrorResults(msg string) SearchResults {
	return SearchResults{Err: msg}
}

func (r SearchResults) IsEmpty() bool { return len(r.Results) == 0 }

// Source is a human-facing citation attached to a final answer.
type Source struct {
	Label string `json:"text"`
	Link  string `json:"link,omitempty"`
}
