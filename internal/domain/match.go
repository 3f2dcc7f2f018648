package domain

// Match is a single similarity hit returned by the vector index.
// Metadata always carries at least the originating file_id.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}
