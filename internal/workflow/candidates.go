package workflow

import "github.com/competitor-xray/backend/internal/catalog"

// EvaluatedCandidate is a candidate annotated by the relevance stage.
type EvaluatedCandidate struct {
	catalog.Candidate
	RelevanceScore float64 `json:"relevanceScore"`
	Relevant       bool    `json:"isRelevant"`
}

// RankingFactors carries the per-factor contributions to a composite
// score, pre-formatted to three decimals for display.
type RankingFactors struct {
	Relevance  string `json:"relevance"`
	Reviews    string `json:"reviews"`
	Rating     string `json:"rating"`
	PriceMatch string `json:"priceMatch"`
}

// RankedCandidate is a candidate with its final composite score.
type RankedCandidate struct {
	EvaluatedCandidate
	CompositeScore float64        `json:"compositeScore"`
	RankingFactors RankingFactors `json:"rankingFactors"`
}

// genericKeywords is the fallback keyword set when no category context is
// supplied.
var genericKeywords = []string{
	"stainless steel water bottle 32oz",
	"vacuum insulated flask",
}

// genericCandidates is the fallback mock result set when no category
// context is supplied.
var genericCandidates = []catalog.Candidate{
	{ID: "C1", Title: "HydroFlask 32oz Wide Mouth", Price: 44.95, Rating: 4.8, Reviews: 15200},
	{ID: "C2", Title: "Generic Plastic Bottle", Price: 8.99, Rating: 3.5, Reviews: 12},
	{ID: "C3", Title: "Yeti Rambler 30oz", Price: 38.00, Rating: 4.7, Reviews: 9400},
	{ID: "C4", Title: "Bottle Brush Cleaner", Price: 12.00, Rating: 4.5, Reviews: 500},
}
