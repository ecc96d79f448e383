// Package synth manufactures labelled synthetic transactions from the
// category registry.
//
// Output is a pure function of the seed and the sequence of calls. Each
// record consumes the random source in a fixed order: merchant,
// description, hour, day offset, amount. Changing that order changes every
// generated dataset.
package synth

import (
	"fmt"
	"math/rand/v2"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/model"
)

// Generator draws synthetic transactions. It is not safe for concurrent
// use; generation runs single-threaded so replays stay deterministic.
type Generator struct {
	registry *config.Registry
	rng      *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(registry *config.Registry, seed int64) *Generator {
	g := &Generator{registry: registry}
	g.Reseed(seed)
	return g
}

// Reseed resets the random source.
func (g *Generator) Reseed(seed int64) {
	g.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Generate draws count records for category from vocabulary.
func (g *Generator) Generate(category string, count int, vocabulary map[string]config.VocabularyEntry) ([]model.RawTransaction, error) {
	entry, ok := vocabulary[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no vocabulary", common.ErrUnknownCategory, category)
	}
	if len(entry.Merchants) == 0 || len(entry.Descriptions) == 0 {
		return nil, common.InvalidConfigf("vocabulary for %q is empty", category)
	}
	if count < 0 {
		return nil, common.InvalidInputf("count must be >= 0, got %d", count)
	}

	rows := make([]model.RawTransaction, 0, count)
	for i := 0; i < count; i++ {
		merchant := entry.Merchants[g.rng.IntN(len(entry.Merchants))]
		description := entry.Descriptions[g.rng.IntN(len(entry.Descriptions))]
		rows = append(rows, model.RawTransaction{
			Timestamp:   g.RandTime(category),
			Merchant:    merchant,
			Description: description,
			Amount:      g.RandAmount(category),
			Label:       category,
		})
	}
	return rows, nil
}

// DatasetOptions controls SynthesizeDataset.
type DatasetOptions struct {
	Overrides   map[string]int
	PerCategory int
	Seed        int64
}

// SynthesizeDataset reseeds the generator, then generates every category
// in catalog order (PerCategory rows unless overridden) and appends the
// fixed edge-case rows.
func (g *Generator) SynthesizeDataset(opts DatasetOptions) ([]model.RawTransaction, error) {
	g.Reseed(opts.Seed)

	vocabulary := g.registry.VocabularyMap()
	var rows []model.RawTransaction
	for _, category := range g.registry.Categories() {
		n := opts.PerCategory
		if override, ok := opts.Overrides[category]; ok {
			n = override
		}
		generated, err := g.Generate(category, n, vocabulary)
		if err != nil {
			return nil, fmt.Errorf("generate %q: %w", category, err)
		}
		rows = append(rows, generated...)
	}

	return append(rows, g.edgeCases()...), nil
}

// edgeCases are hand-written rows with merchants and phrasing absent from
// the vocabulary. The Income row keeps its negative amount on purpose.
func (g *Generator) edgeCases() []model.RawTransaction {
	cases := []model.RawTransaction{
		{Label: "Income", Merchant: "HSBC", Description: "PAYROLL BACS CREDIT", Amount: -1350.0},
		{Label: "Entertainment", Merchant: "STREAMIO", Description: "monthly subscription", Amount: 8.99},
		{Label: "Transport", Merchant: "QuickRide", Description: "late night ride", Amount: 11.2},
		{Label: "Other", Merchant: "HSBC", Description: "card payment", Amount: 24.99},
	}
	for i := range cases {
		cases[i].Timestamp = g.RandTime(cases[i].Label)
	}
	return cases
}
