// Package training runs the offline training job: feature derivation, a
// held-out split, model fitting and evaluation.
package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/features"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/Veraticus/pfm-classifier/internal/pipeline"
)

// Model is a trainable classifier.
type Model interface {
	Fit(rows []model.FeatureRecord, labels []string, classOrder []string) error
	Predict(rows []model.FeatureRecord) ([]string, error)
	Classes() []string
}

// Options control a training run.
type Options struct {
	Progress pipeline.ProgressFunc
	Kind     string
}

// Result is the outcome of a training run.
type Result struct {
	Model      Model
	Report     *Report
	Kind       string
	Labels     []string
	Split      Split
	TrainRows  int
	TestRows   int
	Duration   time.Duration
	Iterations int
}

// Trainer fits models against the registry's catalog and hyperparameters.
type Trainer struct {
	registry *config.Registry
}

// NewTrainer creates a trainer bound to registry.
func NewTrainer(registry *config.Registry) *Trainer {
	return &Trainer{registry: registry}
}

// NewModel returns an unfitted model of the given kind.
func (t *Trainer) NewModel(kind string) (Model, error) {
	switch kind {
	case config.ModelKindLogistic, "":
		return pipeline.New(t.registry.Model()), nil
	case config.ModelKindBayes:
		return pipeline.NewNaiveBayes(t.registry.Model()), nil
	default:
		return nil, common.InvalidConfigf("unknown model kind %q", kind)
	}
}

// Run derives features from txns, splits them, fits a model on the
// training part and scores it on the held-out part.
func (t *Trainer) Run(ctx context.Context, txns []model.RawTransaction, opts Options) (*Result, error) {
	start := time.Now()
	kind := opts.Kind
	if kind == "" {
		kind = config.ModelKindLogistic
	}

	for i, txn := range txns {
		if !t.registry.HasCategory(txn.Label) {
			return nil, fmt.Errorf("%w: row %d has label %q", common.ErrUnknownCategory, i, txn.Label)
		}
	}

	rows, labels := features.FeatureTable(txns)
	settings := t.registry.Model()
	split, err := TrainTestSplit(labels, settings.TestSize, settings.RandomState)
	if err != nil {
		return nil, fmt.Errorf("failed to split dataset: %w", err)
	}
	if !split.Stratified {
		slog.Warn("Stratification disabled: some classes are too small for the chosen split",
			"rows", len(rows), "test_size", settings.TestSize)
	}

	trainRows, trainLabels := pick(rows, labels, split.Train)
	testRows, testLabels := pick(rows, labels, split.Test)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := t.NewModel(kind)
	if err != nil {
		return nil, err
	}
	if p, ok := m.(*pipeline.Pipeline); ok && opts.Progress != nil {
		p.SetProgress(opts.Progress)
	}

	slog.Info("Fitting model", "kind", kind, "train_rows", len(trainRows), "test_rows", len(testRows))
	if err := m.Fit(trainRows, trainLabels, t.registry.Categories()); err != nil {
		return nil, fmt.Errorf("failed to fit %s model: %w", kind, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predicted, err := m.Predict(testRows)
	if err != nil {
		return nil, fmt.Errorf("failed to score held-out rows: %w", err)
	}
	report, err := NewReport(testLabels, predicted, t.registry.Categories())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Model:     m,
		Report:    report,
		Kind:      kind,
		Labels:    t.registry.Categories(),
		Split:     split,
		TrainRows: len(trainRows),
		TestRows:  len(testRows),
		Duration:  time.Since(start),
	}
	if p, ok := m.(*pipeline.Pipeline); ok {
		res.Iterations = p.Classifier.Iterations
	}

	slog.Info("Training complete", "kind", kind, "accuracy", report.Accuracy, "duration", res.Duration)
	return res, nil
}

func pick(rows []model.FeatureRecord, labels []string, idx []int) ([]model.FeatureRecord, []string) {
	outRows := make([]model.FeatureRecord, len(idx))
	outLabels := make([]string, len(idx))
	for i, j := range idx {
		outRows[i] = rows[j]
		outLabels[i] = labels[j]
	}
	return outRows, outLabels
}
