package model

import (
	"fmt"
	"math"
	"sort"
)

// CategoryRanking is one category and the probability the model assigns to it.
type CategoryRanking struct {
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
}

// Validate ensures the CategoryRanking has valid data.
func (r *CategoryRanking) Validate() error {
	if r.Category == "" {
		return fmt.Errorf("category name is required")
	}

	if math.IsNaN(r.Probability) || r.Probability < 0.0 || r.Probability > 1.0 {
		return fmt.Errorf("probability must be between 0.0 and 1.0, got %.2f", r.Probability)
	}

	return nil
}

// CategoryRankings is a slice of CategoryRanking ordered by probability.
type CategoryRankings []CategoryRanking

// Sort orders the rankings by probability, highest first. Equal
// probabilities keep their existing relative order.
func (r CategoryRankings) Sort() {
	sort.SliceStable(r, func(i, j int) bool {
		return r[i].Probability > r[j].Probability
	})
}

// Top returns the highest-probability category, or nil if empty.
func (r CategoryRankings) Top() *CategoryRanking {
	if len(r) == 0 {
		return nil
	}
	r.Sort()
	return &r[0]
}

// TopN returns the N highest-probability categories.
func (r CategoryRankings) TopN(n int) CategoryRankings {
	if n <= 0 {
		return CategoryRankings{}
	}

	r.Sort()

	if n > len(r) {
		n = len(r)
	}

	result := make(CategoryRankings, n)
	copy(result, r[:n])
	return result
}

// Validate ensures all rankings in the slice are valid.
func (r CategoryRankings) Validate() error {
	seen := make(map[string]bool)

	for i, ranking := range r {
		if err := ranking.Validate(); err != nil {
			return fmt.Errorf("invalid ranking at index %d: %w", i, err)
		}

		if seen[ranking.Category] {
			return fmt.Errorf("duplicate category %q in rankings", ranking.Category)
		}
		seen[ranking.Category] = true
	}

	return nil
}

// PredictionResult is either a ranked probability list (Top1 and TopK set)
// or a single label (Prediction set) from a model without probabilities.
type PredictionResult struct {
	Top1       *CategoryRanking `json:"top1,omitempty"`
	Prediction string           `json:"prediction,omitempty"`
	TopK       CategoryRankings `json:"topk,omitempty"`
}

// HasProbabilities reports whether the result carries a ranked list.
func (p PredictionResult) HasProbabilities() bool {
	return p.Top1 != nil
}

// Label returns the single best category in either shape.
func (p PredictionResult) Label() string {
	if p.Top1 != nil {
		return p.Top1.Category
	}
	return p.Prediction
}
