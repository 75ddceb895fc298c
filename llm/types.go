package llm

import "strings"

// Document represents a stored text segment with its embedding and metadata
type Document struct {
	ID         string                 `json:"id"`
	Content    string                 `json:"content"`
	Source     string                 `json:"source"`
	FileType   string                 `json:"file_type"`
	Title      string                 `json:"title"`
	ChunkIndex int                    `json:"chunk_index"`
	Vector     []float32              `json:"vector,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  string                 `json:"created_at"`
}

// SearchResult represents a search result with relevance score
type SearchResult struct {
	Document Document
	Score    float32
}

// Decision is the answering strategy chosen for a question.
type Decision int

const (
	// DecisionUnrecognized means the classifier produced text that maps to no strategy.
	DecisionUnrecognized Decision = iota
	// DecisionLegislation routes to the retrieval-augmented answerer.
	DecisionLegislation
	// DecisionGeneral routes to the direct answerer.
	DecisionGeneral
)

// String returns the wire label of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionLegislation:
		return "legislation"
	case DecisionGeneral:
		return "general"
	default:
		return "unrecognized"
	}
}

// ParseDecision normalizes a raw classifier reply (trim + lower-case) and maps
// it to a Decision by exact match. The normalized text is returned as well so
// callers can report what the model actually said.
func ParseDecision(raw string) (Decision, string) {
	label := strings.ToLower(strings.TrimSpace(raw))
	switch label {
	case "legislation":
		return DecisionLegislation, label
	case "general":
		return DecisionGeneral, label
	default:
		return DecisionUnrecognized, label
	}
}

// Turn is one question/answer exchange. A new Turn is built for every question.
type Turn struct {
	Input    string
	Output   string
	Decision Decision
	// Label is the normalized classifier reply behind Decision.
	Label string
}
