package catalog

// Item is one product prospect fed into the pipeline. FailureStep, when in
// 1..5, deterministically fails that pipeline stage with FailureReason.
type Item struct {
	ID            string  `json:"id,omitempty" yaml:"id"`
	Title         string  `json:"title" yaml:"title"`
	Price         float64 `json:"price" yaml:"price"`
	Category      string  `json:"category" yaml:"category"`
	CategoryID    string  `json:"categoryId" yaml:"categoryId"`
	FailureStep   int     `json:"failureStep,omitempty" yaml:"failureStep"`
	FailureReason string  `json:"failureReason,omitempty" yaml:"failureReason"`
}

// Candidate is one mock search result.
type Candidate struct {
	ID      string  `json:"id" yaml:"id"`
	Title   string  `json:"title" yaml:"title"`
	Price   float64 `json:"price" yaml:"price"`
	Rating  float64 `json:"rating" yaml:"rating"`
	Reviews int     `json:"reviews" yaml:"reviews"`
}

// KeywordRuleSpec is the serialized form of one keyword rule. An empty
// TitleContains matches every item.
type KeywordRuleSpec struct {
	TitleContains string   `json:"titleContains,omitempty" yaml:"titleContains"`
	Keywords      []string `json:"keywords" yaml:"keywords"`
}

// CandidateRuleSpec is the serialized form of one mock-candidate rule.
type CandidateRuleSpec struct {
	TitleContains string      `json:"titleContains,omitempty" yaml:"titleContains"`
	Candidates    []Candidate `json:"candidates" yaml:"candidates"`
}

// CategorySpec is the serialized category configuration, exposed as-is on
// the catalog read API.
type CategorySpec struct {
	ID                string              `json:"id" yaml:"id"`
	Name              string              `json:"name" yaml:"name"`
	KeywordRules      []KeywordRuleSpec   `json:"keywordRules" yaml:"keywordRules"`
	DefaultKeywords   []string            `json:"defaultKeywords" yaml:"defaultKeywords"`
	CandidateRules    []CandidateRuleSpec `json:"candidateRules" yaml:"candidateRules"`
	DefaultCandidates []Candidate         `json:"defaultCandidates" yaml:"defaultCandidates"`
}
