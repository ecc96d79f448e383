package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/Veraticus/pfm-classifier/internal/storage"
	"github.com/Veraticus/pfm-classifier/internal/training"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReport(t *testing.T) {
	report, err := training.NewReport(
		[]string{"Groceries", "Transport", "Groceries"},
		[]string{"Groceries", "Groceries", "Groceries"},
		[]string{"Groceries", "Transport"},
	)
	require.NoError(t, err)

	out := RenderReport(report)
	for _, want := range []string{"Category", "Groceries", "Transport", "accuracy", "macro avg", "weighted avg", "0.67"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderPredictions(t *testing.T) {
	txns := []model.RawTransaction{
		{Timestamp: "2025-08-24T09:00:00", Merchant: "Tesco", Amount: -43},
		{Timestamp: "2025-08-24T23:00:00", Merchant: "Uber", Amount: -12.5},
	}
	results := []model.PredictionResult{
		{
			Top1: &model.CategoryRanking{Category: "Groceries", Probability: 0.81},
			TopK: model.CategoryRankings{
				{Category: "Groceries", Probability: 0.81},
				{Category: "Dining", Probability: 0.12},
			},
		},
		{Prediction: "Transport"},
	}

	out := RenderPredictions(txns, results)
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "0.81")
	assert.Contains(t, out, "Dining 0.12")
	assert.Contains(t, out, "Transport")
	assert.Contains(t, out, "-12.50")
}

func TestRenderRunsAndDatasets(t *testing.T) {
	created := time.Date(2025, 8, 2, 10, 0, 0, 0, time.UTC)
	runs := RenderRuns([]storage.TrainingRun{{
		CreatedAt: created, ModelKind: "logistic", Accuracy: 0.934, MacroF1: 0.9, TrainRows: 400, TestRows: 100, ModelPath: "model.json",
	}})
	assert.Contains(t, runs, "logistic")
	assert.Contains(t, runs, "0.93")
	assert.Contains(t, runs, "model.json")

	sets := RenderDatasets([]storage.Dataset{{ID: "abc", Name: "synthetic-abc", Source: storage.SourceSynthetic, RowCount: 496, CreatedAt: created}})
	assert.Contains(t, sets, "synthetic-abc")
	assert.Contains(t, sets, "496")
}

func TestRenderTrainingSummary(t *testing.T) {
	res := &training.Result{
		Kind:      "logistic",
		Labels:    []string{"A", "B"},
		TrainRows: 8,
		TestRows:  2,
		Report:    &training.Report{Accuracy: 1},
		Duration:  1500 * time.Millisecond,
	}
	out := RenderTrainingSummary(res, "model.json")
	assert.Contains(t, out, "Training Complete")
	assert.Contains(t, out, "not stratified")
	assert.Contains(t, out, "model.json")
}

func TestTrainingProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewTrainingProgress(&buf, 100)
	p.Update(10, 100, 1.25)
	p.Update(40, 100, 0.5)
	p.Finish()
	p.Finish()

	assert.True(t, strings.Contains(buf.String(), "loss=0.5000"), buf.String())
}

func TestScoreStyle(t *testing.T) {
	tests := []struct {
		score float64
		want  lipgloss.TerminalColor
	}{
		{0.95, HighColor},
		{HighConfidence, HighColor},
		{0.6, MediumColor},
		{0.1, LowColor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreStyle(tt.score).GetForeground(), tt.score)
	}
}
