package pipeline

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/features"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/Veraticus/pfm-classifier/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingTable(t *testing.T, reg *config.Registry) ([]model.FeatureRecord, []string) {
	t.Helper()
	rows, err := synth.NewGenerator(reg, reg.Seed()).SynthesizeDataset(synth.DatasetOptions{
		PerCategory: 40,
		Seed:        reg.Seed(),
	})
	require.NoError(t, err)
	return features.FeatureTable(rows)
}

func TestTfidfVectorizer_FitTransform(t *testing.T) {
	v := NewTfidfVectorizer(AnalyzerWord, [2]int{1, 1}, 1)
	docs := []string{"tesco groceries", "tesco weekly shop", "uber ride"}
	require.NoError(t, v.Fit(docs))

	assert.Equal(t, map[string]int{
		"groceries": 0, "ride": 1, "shop": 2, "tesco": 3, "uber": 4, "weekly": 5,
	}, v.Vocabulary)
	assert.InDelta(t, math.Log(4.0/3.0)+1, v.IDF[3], 1e-12)
	assert.InDelta(t, math.Log(4.0/2.0)+1, v.IDF[0], 1e-12)

	rows, err := v.Transform([]string{"tesco groceries", "unknown words"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, rows[0].Idx)
	assert.InDelta(t, 1.0, rows[0].SquaredNorm(), 1e-12)
	assert.Empty(t, rows[1].Idx)
}

func TestTfidfVectorizer_MinDFAndBigrams(t *testing.T) {
	v := NewTfidfVectorizer(AnalyzerWord, [2]int{1, 2}, 2)
	require.NoError(t, v.Fit([]string{"tesco groceries", "tesco weekly shop", "uber ride"}))
	assert.Equal(t, map[string]int{"tesco": 0}, v.Vocabulary)

	v = NewTfidfVectorizer(AnalyzerWord, [2]int{1, 2}, 1)
	require.NoError(t, v.Fit([]string{"weekly shop"}))
	assert.Contains(t, v.Vocabulary, "weekly shop")
}

func TestTfidfVectorizer_Errors(t *testing.T) {
	v := NewTfidfVectorizer(AnalyzerWord, [2]int{1, 1}, 5)
	err := v.Fit([]string{"a b", "c d"})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	v = NewTfidfVectorizer(AnalyzerWord, [2]int{1, 1}, 1)
	_, err = v.Transform([]string{"x"})
	assert.True(t, errors.Is(err, ErrNotFitted))

	v = NewTfidfVectorizer(AnalyzerWord, [2]int{3, 1}, 1)
	assert.True(t, errors.Is(v.Fit([]string{"x"}), common.ErrInvalidConfig))
}

func TestCharWBNgrams(t *testing.T) {
	assert.Equal(t, []string{" bp", "bp ", " bp "}, CharWBNgrams("BP", 3, 5))
	assert.Equal(t, []string{" a "}, CharWBNgrams("a", 3, 5))
	assert.Equal(t, []string{" uber", "uber ", " uber ", " o2 "}, CharWBNgrams("uber o2", 5, 6))
	assert.Equal(t, []string{" ca", "caf", "aff", "ffè", "fè "}, CharWBNgrams("caffè", 3, 3))
}

func TestWordTokens(t *testing.T) {
	assert.Equal(t, []string{"caffè", "nero", "12"}, WordTokens("caffè nero a 12"))
	assert.Equal(t, []string{"sainsbury", "weekly_shop"}, WordTokens("sainsbury's weekly_shop"))
	assert.Empty(t, WordTokens(""))
}

func TestScaler(t *testing.T) {
	s := &Scaler{}
	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 2}}))
	assert.Equal(t, []float64{1, 1}, s.Scale)

	rows, err := s.Transform([][]float64{{2, 0}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, rows[0].Idx)
	assert.Equal(t, []float64{2}, rows[0].Val)

	_, err = s.Transform([][]float64{{1}})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestEncodeLabels(t *testing.T) {
	classes, y, err := EncodeLabels([]string{"Income", "Groceries", "Income"}, []string{"Groceries", "Transport", "Income"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries", "Income"}, classes)
	assert.Equal(t, []int{1, 0, 1}, y)

	classes, _, err = EncodeLabels([]string{"b", "a", "c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, classes)

	_, _, err = EncodeLabels([]string{"Groceries", "Crypto"}, []string{"Groceries"})
	assert.True(t, errors.Is(err, common.ErrUnknownCategory))

	_, _, err = EncodeLabels([]string{"a", "a"}, nil)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestSampleWeights_Balanced(t *testing.T) {
	w := sampleWeights([]int{0, 0, 0, 1}, 2, config.ClassWeightBalanced)
	assert.InDeltaSlice(t, []float64{4.0 / 6, 4.0 / 6, 4.0 / 6, 2}, w, 1e-12)

	w = sampleWeights([]int{0, 1}, 2, config.ClassWeightNone)
	assert.Equal(t, []float64{1, 1}, w)
}

func TestPipeline_NotFitted(t *testing.T) {
	p := New(config.DefaultModelSettings())
	assert.False(t, p.Fitted())

	_, err := p.PredictProba([]model.FeatureRecord{features.Derive("Tesco", "groceries", 43, "")})
	assert.True(t, errors.Is(err, common.ErrModelNotFitted))

	_, err = p.Predict(nil)
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestPipeline_FailedRefitIsNotFitted(t *testing.T) {
	reg := config.Default()
	rows, labels := trainingTable(t, reg)

	p := New(reg.Model())
	require.NoError(t, p.Fit(rows, labels, reg.Categories()))
	require.True(t, p.Fitted())

	// Shared description words fit the word block; one-letter merchants
	// leave the char block with no n-gram above min_df.
	bad := []model.FeatureRecord{
		features.Derive("a", "coffee shop", -3, ""),
		features.Derive("b", "coffee shop", -4, ""),
	}
	err := p.Fit(bad, []string{"Dining & Coffee", "Groceries"}, reg.Categories())
	require.ErrorIs(t, err, common.ErrInvalidInput)

	assert.False(t, p.Fitted())
	_, err = p.PredictProba(rows[:1])
	assert.ErrorIs(t, err, common.ErrModelNotFitted)
}

func TestPipeline_FitPredict(t *testing.T) {
	reg := config.Default()
	rows, labels := trainingTable(t, reg)

	p := New(reg.Model())
	var calls int
	p.SetProgress(func(iter, maxIter int, loss float64) {
		calls++
		assert.False(t, math.IsNaN(loss))
	})
	require.NoError(t, p.Fit(rows, labels, reg.Categories()))
	assert.True(t, p.Fitted())
	assert.Positive(t, calls)
	assert.Equal(t, reg.Categories(), p.Classes())
	assert.Equal(t, []string{BlockWords, BlockMerchantChar, BlockNumeric},
		[]string{p.Blocks[0].Name, p.Blocks[1].Name, p.Blocks[2].Name})

	queries := []model.FeatureRecord{
		features.Derive("Tesco", "groceries", -43.0, "2025-08-24T09:00:00"),
		features.Derive("Payroll", "monthly salary", 1800, "2025-08-20T10:00:00"),
		features.Derive("Netflix", "subscription", -9.99, "2025-08-20T21:00:00"),
	}
	probs, err := p.PredictProba(queries)
	require.NoError(t, err)
	for _, row := range probs {
		require.Len(t, row, len(reg.Categories()))
		var sum float64
		for _, v := range row {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	got, err := p.Predict(queries)
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries", "Income", "Entertainment"}, got)

	var correct int
	pred, err := p.Predict(rows)
	require.NoError(t, err)
	for i := range pred {
		if pred[i] == labels[i] {
			correct++
		}
	}
	assert.Greater(t, float64(correct)/float64(len(rows)), 0.9)
}

func TestPipeline_JSONRoundTrip(t *testing.T) {
	reg := config.Default()
	rows, labels := trainingTable(t, reg)

	settings := reg.Model()
	settings.MaxIter = 200
	p := New(settings)
	require.NoError(t, p.Fit(rows, labels, reg.Categories()))

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var restored Pipeline
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.True(t, restored.Fitted())

	want, err := p.PredictProba(rows[:20])
	require.NoError(t, err)
	got, err := restored.PredictProba(rows[:20])
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPipeline_SGDSolver(t *testing.T) {
	reg := config.Default()
	rows, labels := trainingTable(t, reg)

	settings := reg.Model()
	settings.Solver = config.SolverSGD
	settings.MaxIter = 40
	p := New(settings)
	require.NoError(t, p.Fit(rows, labels, reg.Categories()))

	got, err := p.Predict([]model.FeatureRecord{features.Derive("Tesco", "weekly shop", -60, "2025-08-19T12:00:00")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries"}, got)
}

func TestPipeline_SolversAgree(t *testing.T) {
	reg := config.Default()
	rows, labels := trainingTable(t, reg)
	query := []model.FeatureRecord{
		features.Derive("Tesco", "groceries", -43, "2025-08-24T09:00:00"),
		features.Derive("Payroll", "monthly salary", 1800, "2025-08-20T10:00:00"),
	}

	var got [][]string
	for _, solver := range []string{config.SolverLBFGS, config.SolverGD} {
		settings := reg.Model()
		settings.Solver = solver
		p := New(settings)
		require.NoError(t, p.Fit(rows, labels, reg.Categories()), solver)
		assert.Positive(t, p.Classifier.Iterations, solver)

		pred, err := p.Predict(query)
		require.NoError(t, err)
		got = append(got, pred)
	}
	assert.Equal(t, []string{"Groceries", "Income"}, got[0])
	assert.Equal(t, got[0], got[1])
}

func TestPipeline_UnknownSolver(t *testing.T) {
	reg := config.Default()
	rows, labels := trainingTable(t, reg)

	settings := reg.Model()
	settings.Solver = "saga"
	err := New(settings).Fit(rows, labels, reg.Categories())
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))
}

func TestNaiveBayes(t *testing.T) {
	reg := config.Default()
	rows, labels := trainingTable(t, reg)

	nb := NewNaiveBayes(reg.Model())
	_, err := nb.Predict(rows[:1])
	assert.True(t, errors.Is(err, common.ErrModelNotFitted))

	require.NoError(t, nb.Fit(rows, labels, reg.Categories()))
	assert.Equal(t, reg.Categories(), nb.Classes())

	queries := []model.FeatureRecord{
		features.Derive("Tesco", "groceries", -43.0, "2025-08-24T09:00:00"),
		features.Derive("Payroll", "monthly salary", 1800, "2025-08-20T10:00:00"),
	}
	got, err := nb.Predict(queries)
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries", "Income"}, got)

	data, err := json.Marshal(nb)
	require.NoError(t, err)
	var restored NaiveBayes
	require.NoError(t, json.Unmarshal(data, &restored))

	again, err := restored.Predict(queries)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}
