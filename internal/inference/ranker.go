package inference

import (
	"fmt"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/model"
)

// Rank orders classes by probability, highest first, and keeps the top k.
// Equal probabilities keep their classOrder order. k larger than the
// number of classes is clamped.
func Rank(probabilities []float64, classOrder []string, k int) (model.PredictionResult, error) {
	if k < 1 {
		return model.PredictionResult{}, common.InvalidInputf("k must be >= 1, got %d", k)
	}
	if len(probabilities) != len(classOrder) {
		return model.PredictionResult{}, fmt.Errorf("%d probabilities for %d classes", len(probabilities), len(classOrder))
	}
	if len(classOrder) == 0 {
		return model.PredictionResult{}, fmt.Errorf("model has no classes")
	}

	ranked := make(model.CategoryRankings, len(classOrder))
	for i, c := range classOrder {
		ranked[i] = model.CategoryRanking{Category: c, Probability: probabilities[i]}
	}
	top := ranked.TopN(k)
	top1 := top[0]
	return model.PredictionResult{Top1: &top1, TopK: top}, nil
}
