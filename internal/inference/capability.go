// Package inference serves predictions from a loaded model.
//
// A loaded model is wrapped in a Capability that says up front whether it
// can produce ranked probabilities or only a single label. Callers switch
// on the variant instead of probing the model at request time.
package inference

//go:generate mockgen -destination=mocks/mock_inference.go -package=mocks github.com/Veraticus/pfm-classifier/internal/inference ProbabilityClassifier,LabelClassifier,ModelSource

import (
	"context"
	"fmt"

	"github.com/Veraticus/pfm-classifier/internal/model"
)

// ProbabilityClassifier returns per-class probabilities. Column c of every
// row corresponds to Classes()[c].
type ProbabilityClassifier interface {
	PredictProba(rows []model.FeatureRecord) ([][]float64, error)
	Classes() []string
}

// LabelClassifier returns one label per row.
type LabelClassifier interface {
	Predict(rows []model.FeatureRecord) ([]string, error)
}

// ModelSource opens the model stored at path.
type ModelSource interface {
	Open(ctx context.Context, path string) (Capability, error)
}

// Kind identifies a Capability variant.
type Kind int

// Capability variants.
const (
	KindNone Kind = iota
	KindProbabilities
	KindLabelOnly
)

func (k Kind) String() string {
	switch k {
	case KindProbabilities:
		return "probabilities"
	case KindLabelOnly:
		return "label_only"
	default:
		return "none"
	}
}

// Capability is a loaded model tagged with what it can do.
type Capability struct {
	proba ProbabilityClassifier
	label LabelClassifier
	kind  Kind
}

// WithProbabilities wraps a model that ranks classes.
func WithProbabilities(c ProbabilityClassifier) Capability {
	return Capability{kind: KindProbabilities, proba: c}
}

// LabelOnly wraps a model that returns a single label.
func LabelOnly(c LabelClassifier) Capability {
	return Capability{kind: KindLabelOnly, label: c}
}

// Kind returns the variant.
func (c Capability) Kind() Kind { return c.kind }

// Classify produces one PredictionResult per row. k bounds the ranked
// list and is ignored by label-only models.
func (c Capability) Classify(rows []model.FeatureRecord, k int) ([]model.PredictionResult, error) {
	switch c.kind {
	case KindProbabilities:
		probs, err := c.proba.PredictProba(rows)
		if err != nil {
			return nil, err
		}
		if len(probs) != len(rows) {
			return nil, fmt.Errorf("model returned %d probability rows for %d inputs", len(probs), len(rows))
		}
		classes := c.proba.Classes()
		out := make([]model.PredictionResult, len(rows))
		for i, p := range probs {
			out[i], err = Rank(p, classes, k)
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	case KindLabelOnly:
		labels, err := c.label.Predict(rows)
		if err != nil {
			return nil, err
		}
		if len(labels) != len(rows) {
			return nil, fmt.Errorf("model returned %d labels for %d inputs", len(labels), len(rows))
		}
		out := make([]model.PredictionResult, len(rows))
		for i, l := range labels {
			out[i] = model.PredictionResult{Prediction: l}
		}
		return out, nil
	}
	return nil, fmt.Errorf("capability has no model")
}
