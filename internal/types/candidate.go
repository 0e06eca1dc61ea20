package types

// Content types accepted by the questionnaire and the generator.
const (
	ContentTypeMovie = "movie"
	ContentTypeBook  = "book"
	ContentTypeBoth  = "both"
)

// Candidate is a single raw suggestion as returned by the generator,
// before any catalog enrichment. It is never persisted directly.
type Candidate struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Director    string   `json:"director,omitempty"`
	Author      string   `json:"author,omitempty"`
	Year        int      `json:"year,omitempty"`
	Genres      []string `json:"genres"`
	Description string   `json:"description"`
	Explanation string   `json:"explanation"`
}

// EnrichedCandidate is a Candidate with catalog-sourced fields layered on
// top. Every Candidate field survives enrichment: catalog values replace
// generator values only when non-empty.
type EnrichedCandidate struct {
	Candidate
	PosterURL string  `json:"poster_url"`
	Rating    float64 `json:"rating"`
}

// AnswerSet is the filled-in questionnaire: ordered question/answer pairs.
type AnswerSet []Answer

type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
