package domain

// Product is one ranked catalog entry in a recommendation response
type Product struct {
	UniqID      string   `json:"uniq_id" yaml:"uniq_id"`
	Title       string   `json:"title" yaml:"title"`
	Brand       *string  `json:"brand" yaml:"brand"`
	Description string   `json:"description" yaml:"description"`
	Price       *float64 `json:"price" yaml:"price"`
	Categories  []string `json:"categories" yaml:"categories"`
	Image       *string  `json:"image" yaml:"image"`
	Score       float64  `json:"score" yaml:"score"`
}

// ScoredMatch is the lexical score of one catalog row against a query
type ScoredMatch struct {
	Index           int     // position of the row in the catalog
	ID              string  // uniq_id of the row
	RawScore        float64 // weighted overlap with substring bonus, unbounded
	NormalizedScore float64 // RawScore saturated into [0,1]
}

// SimilarMatch is a neighbour returned by the similarity backend
type SimilarMatch struct {
	ID    string  `json:"id"`
	Score float64 `json:"score" yaml:"score"`
}

// ChatRequest is the body of a recommendation chat request
type ChatRequest struct {
	Message string `json:"message"`
	TopK    *int   `json:"top_k,omitempty"`
}

// RecommendationResult is the response to a recommendation query
type RecommendationResult struct {
	Query           string    `json:"query" yaml:"query"`
	Recommendations []Product `json:"recommendations" yaml:"recommendations"`
}
