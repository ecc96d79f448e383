package synth

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestSynthesizeDataset_Deterministic(t *testing.T) {
	reg := config.Default()

	a, err := NewGenerator(reg, 1).SynthesizeDataset(DatasetOptions{PerCategory: 10, Seed: 7})
	require.NoError(t, err)
	b, err := NewGenerator(reg, 99).SynthesizeDataset(DatasetOptions{PerCategory: 10, Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, a, b)

	c, err := NewGenerator(reg, 1).SynthesizeDataset(DatasetOptions{PerCategory: 10, Seed: 8})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSynthesizeDataset_ShapeAndOverrides(t *testing.T) {
	reg := config.Default()
	gen := NewGenerator(reg, reg.Seed())

	rows, err := gen.SynthesizeDataset(DatasetOptions{
		PerCategory: 5,
		Overrides:   map[string]int{"Other": 2},
		Seed:        42,
	})
	require.NoError(t, err)

	// 8 categories at 5, Other at 2, plus 4 edge rows.
	assert.Len(t, rows, 8*5+2+4)

	counts := map[string]int{}
	for _, r := range rows {
		require.True(t, reg.HasCategory(r.Label), "label %q not in catalog", r.Label)
		counts[r.Label]++
	}
	assert.Equal(t, 5+1, counts["Income"])
	assert.Equal(t, 2+1, counts["Other"])
	assert.Equal(t, 5+1, counts["Transport"])
	assert.Equal(t, 5, counts["Groceries"])

	// Catalog order: first block is Groceries.
	assert.Equal(t, "Groceries", rows[0].Label)

	edges := rows[len(rows)-4:]
	assert.Equal(t, "PAYROLL BACS CREDIT", edges[0].Description)
	assert.Equal(t, -1350.0, edges[0].Amount)
	assert.Equal(t, "Income", edges[0].Label)
	assert.Equal(t, "STREAMIO", edges[1].Merchant)
	assert.Equal(t, "QuickRide", edges[2].Merchant)
	assert.Equal(t, "card payment", edges[3].Description)
}

func TestGenerate_UsesVocabularyAndBounds(t *testing.T) {
	reg := config.Default()
	gen := NewGenerator(reg, 3)

	rows, err := gen.Generate("Groceries", 200, reg.VocabularyMap())
	require.NoError(t, err)
	require.Len(t, rows, 200)

	vocab, err := reg.Vocabulary("Groceries")
	require.NoError(t, err)

	for _, r := range rows {
		assert.Contains(t, vocab.Merchants, r.Merchant)
		assert.Contains(t, vocab.Descriptions, r.Description)
		assert.Equal(t, "Groceries", r.Label)
		assert.GreaterOrEqual(t, r.Amount, -120.0)
		assert.LessOrEqual(t, r.Amount, -8.0)

		ts, err := time.Parse(TimestampLayout, r.Timestamp)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ts.Hour(), 8)
		assert.LessOrEqual(t, ts.Hour(), 21)
	}
}

func TestGenerate_Errors(t *testing.T) {
	reg := config.Default()
	gen := NewGenerator(reg, 3)

	_, err := gen.Generate("Crypto", 1, reg.VocabularyMap())
	assert.True(t, errors.Is(err, common.ErrUnknownCategory))

	_, err = gen.Generate("Groceries", 1, map[string]config.VocabularyEntry{"Groceries": {}})
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))

	rows, err := gen.Generate("Groceries", 0, reg.VocabularyMap())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestChooseRandomAmount_Bounds(t *testing.T) {
	r := newRand(42)

	for i := 0; i < 10000; i++ {
		v, err := ChooseRandomAmount(r, 3, 70, 2, config.Expense)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, -70.0)
		require.LessOrEqual(t, v, -3.0)

		cents := v * 100
		require.InDelta(t, math.Round(cents), cents, 1e-6, "value %v has more than 2 decimals", v)
	}
}

func TestChooseRandomAmount_SwapsInvertedBounds(t *testing.T) {
	r := newRand(1)
	for i := 0; i < 1000; i++ {
		v, err := ChooseRandomAmount(r, 2500, 800, 0, config.Income)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 800.0)
		require.LessOrEqual(t, v, 2500.0)
		require.Equal(t, math.Trunc(v), v)
	}
}

func TestChooseRandomAmount_NegativePlaces(t *testing.T) {
	_, err := ChooseRandomAmount(newRand(1), 1, 2, -1, config.Expense)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestRoundAmount(t *testing.T) {
	assert.Equal(t, 2.35, RoundAmount(2.345, 2))
	assert.Equal(t, -2.35, RoundAmount(-2.345, 2))
	assert.Equal(t, 12.0, RoundAmount(11.5, 0))
}

func TestChooseHour(t *testing.T) {
	r := newRand(5)

	for i := 0; i < 1000; i++ {
		h, err := ChooseHourFrom(r, []int{7, 8, 9, 22, 23, 0, 1})
		require.NoError(t, err)
		assert.Contains(t, []int{7, 8, 9, 22, 23, 0, 1}, h)

		h, err = ChooseHourBetween(r, 8, 21)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, h, 8)
		assert.LessOrEqual(t, h, 21)
	}

	_, err := ChooseHourFrom(r, nil)
	assert.Error(t, err)
	_, err = ChooseHourFrom(r, []int{24})
	assert.Error(t, err)
}

func TestRandTime_CategoryHours(t *testing.T) {
	reg := config.Default()
	gen := NewGenerator(reg, 11)
	allowed := []int{19, 20, 21, 22}

	for i := 0; i < 500; i++ {
		s := gen.RandTime("Entertainment")
		require.False(t, strings.Contains(s, "Z"))

		ts, err := time.Parse(TimestampLayout, s)
		require.NoError(t, err)
		assert.Contains(t, allowed, ts.Hour())

		base := reg.Time().Base
		assert.False(t, ts.Before(base))
		assert.True(t, ts.Before(base.AddDate(0, 0, 14)))
	}
}

func TestOffsetTime(t *testing.T) {
	base := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)
	got := OffsetTime(base, 13, 23)
	assert.Equal(t, "2025-08-28T23:00:00", got.Format(TimestampLayout))
}

func TestRandAmount_EveryCategoryWithinSpec(t *testing.T) {
	reg := config.Default()
	gen := NewGenerator(reg, reg.Seed())
	scale := math.Pow10(reg.DecimalPlaces())

	for _, category := range reg.Categories() {
		t.Run(category, func(t *testing.T) {
			spec := reg.AmountSpec(category)
			lo, hi := float64(spec.Sign)*spec.Low, float64(spec.Sign)*spec.High
			if lo > hi {
				lo, hi = hi, lo
			}

			for i := 0; i < 10000; i++ {
				v := gen.RandAmount(category)
				require.GreaterOrEqual(t, v, lo)
				require.LessOrEqual(t, v, hi)
				require.InDelta(t, math.Round(v*scale), v*scale, 1e-6, "%v not rounded to %d places", v, reg.DecimalPlaces())
				if spec.Sign == config.Income {
					require.Positive(t, v)
				} else {
					require.Negative(t, v)
				}
			}
		})
	}
}

func TestRandAmount_DefaultSpecAndIncomeSign(t *testing.T) {
	reg := config.Default()
	gen := NewGenerator(reg, 3)

	def := reg.Snapshot().DefaultAmount
	assert.Equal(t, def, reg.AmountSpec("Other"))
	for i := 0; i < 1000; i++ {
		v := gen.RandAmount("Other")
		require.LessOrEqual(t, v, -def.Low)
		require.GreaterOrEqual(t, v, -def.High)
	}

	assert.Equal(t, config.Income, reg.AmountSpec("Income").Sign)
	assert.Positive(t, gen.RandAmount("Income"))
}
