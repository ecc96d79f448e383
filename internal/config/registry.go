package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/common"
)

// Sign is the polarity of a sampled amount.
type Sign int

// Amount polarities.
const (
	Expense Sign = -1
	Income  Sign = 1
)

// AmountSpec is the inclusive absolute-value range and polarity used to
// sample a monetary amount for a category.
type AmountSpec struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
	Sign Sign    `yaml:"sign"`
}

// NewAmountSpec builds an AmountSpec, rejecting low > high.
func NewAmountSpec(low, high float64, sign Sign) (AmountSpec, error) {
	spec := AmountSpec{Low: low, High: high, Sign: sign}
	if err := spec.Validate(); err != nil {
		return AmountSpec{}, err
	}
	return spec, nil
}

// Validate checks the range and sign.
func (a AmountSpec) Validate() error {
	if a.Low > a.High {
		return common.InvalidConfigf("amount spec low %.2f must be <= high %.2f", a.Low, a.High)
	}
	if a.Sign != Expense && a.Sign != Income {
		return common.InvalidConfigf("amount spec sign must be +1 or -1, got %d", a.Sign)
	}
	return nil
}

// VocabularyEntry holds the merchant names and description phrases for a category.
type VocabularyEntry struct {
	Merchants    []string `yaml:"merchants"`
	Descriptions []string `yaml:"descriptions"`
}

// TimeSpec controls generation of synthetic timestamps.
type TimeSpec struct {
	Base             time.Time        `yaml:"base"`
	HourChoices      map[string][]int `yaml:"hour_choices"`
	DefaultHourRange [2]int           `yaml:"default_hour_range"`
	DayOffsetRange   [2]int           `yaml:"day_offset_range"`
}

// ModelSettings are the featurizer and classifier hyperparameters.
type ModelSettings struct {
	TestSize    float64 `yaml:"test_size"`
	RandomState int64   `yaml:"random_state"`
	WordMinDF   int     `yaml:"word_min_df"`
	WordNgram   [2]int  `yaml:"word_ngram"`
	CharMinDF   int     `yaml:"char_min_df"`
	CharNgram   [2]int  `yaml:"char_ngram"`
	C           float64 `yaml:"c"` // inverse L2 regularization strength
	Solver      string  `yaml:"solver"`
	MaxIter     int     `yaml:"max_iter"`
	Tol         float64 `yaml:"tol"`
	ClassWeight string  `yaml:"class_weight"`
}

// Solvers understood by the logistic classifier.
const (
	SolverLBFGS = "lbfgs"
	SolverGD    = "gd"
	SolverSGD   = "sgd"
)

// Class weighting modes.
const (
	ClassWeightBalanced = "balanced"
	ClassWeightNone     = "none"
)

// Registry is the read-only catalog of categories, vocabulary, sampling
// distributions and hyperparameters. Build it once with Default or New and
// share the pointer; nothing mutates it afterwards.
type Registry struct {
	vocabulary    map[string]VocabularyEntry
	amounts       map[string]AmountSpec
	categories    []string
	time          TimeSpec
	model         ModelSettings
	defaultAmount AmountSpec
	decimalPlaces int
	seed          int64
}

// RegistryOptions are the literal definitions a Registry is built from.
type RegistryOptions struct {
	Vocabulary    map[string]VocabularyEntry `yaml:"vocabulary"`
	Amounts       map[string]AmountSpec      `yaml:"amounts"`
	Categories    []string                   `yaml:"categories"`
	Time          TimeSpec                   `yaml:"time"`
	Model         ModelSettings              `yaml:"model"`
	DefaultAmount AmountSpec                 `yaml:"default_amount"`
	DecimalPlaces int                        `yaml:"decimal_places"`
	Seed          int64                      `yaml:"seed"`
}

// New validates opts and builds a Registry from deep copies of them.
func New(opts RegistryOptions) (*Registry, error) {
	r := &Registry{
		categories:    dedupe(opts.Categories),
		vocabulary:    make(map[string]VocabularyEntry, len(opts.Vocabulary)),
		amounts:       make(map[string]AmountSpec, len(opts.Amounts)),
		defaultAmount: opts.DefaultAmount,
		decimalPlaces: opts.DecimalPlaces,
		model:         opts.Model,
		seed:          opts.Seed,
		time: TimeSpec{
			Base:             opts.Time.Base,
			HourChoices:      make(map[string][]int, len(opts.Time.HourChoices)),
			DefaultHourRange: opts.Time.DefaultHourRange,
			DayOffsetRange:   opts.Time.DayOffsetRange,
		},
	}
	for name, entry := range opts.Vocabulary {
		r.vocabulary[name] = VocabularyEntry{
			Merchants:    append([]string(nil), entry.Merchants...),
			Descriptions: append([]string(nil), entry.Descriptions...),
		}
	}
	for name, spec := range opts.Amounts {
		r.amounts[name] = spec
	}
	for name, hours := range opts.Time.HourChoices {
		r.time.HourChoices[name] = append([]int(nil), hours...)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks every invariant of the registry.
func (r *Registry) Validate() error {
	if len(r.categories) == 0 {
		return common.InvalidConfigf("category catalog is empty")
	}
	for _, category := range r.categories {
		entry, ok := r.vocabulary[category]
		if !ok {
			return common.InvalidConfigf("category %q has no vocabulary", category)
		}
		if len(entry.Merchants) == 0 || len(entry.Descriptions) == 0 {
			return common.InvalidConfigf("category %q has an empty vocabulary entry", category)
		}
	}
	for category, spec := range r.amounts {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("amount spec for %q: %w", category, err)
		}
	}
	if err := r.defaultAmount.Validate(); err != nil {
		return fmt.Errorf("default amount spec: %w", err)
	}
	if r.decimalPlaces < 0 {
		return common.InvalidConfigf("decimal places must be >= 0, got %d", r.decimalPlaces)
	}
	if err := r.validateTime(); err != nil {
		return err
	}
	return r.validateModel()
}

func (r *Registry) validateTime() error {
	for category, hours := range r.time.HourChoices {
		if len(hours) == 0 {
			return common.InvalidConfigf("hour choices for %q are empty", category)
		}
		for _, h := range hours {
			if h < 0 || h > 23 {
				return common.InvalidConfigf("hour choice %d for %q is outside 0..23", h, category)
			}
		}
	}
	lo, hi := orderedPair(r.time.DefaultHourRange)
	if lo < 0 || hi > 23 {
		return common.InvalidConfigf("default hour range %v is outside 0..23", r.time.DefaultHourRange)
	}
	return nil
}

func (r *Registry) validateModel() error {
	m := r.model
	switch {
	case m.TestSize <= 0 || m.TestSize >= 1:
		return common.InvalidConfigf("test size must be in (0, 1), got %v", m.TestSize)
	case m.WordMinDF < 1 || m.CharMinDF < 1:
		return common.InvalidConfigf("minimum document frequency must be >= 1")
	case m.WordNgram[0] < 1 || m.WordNgram[0] > m.WordNgram[1]:
		return common.InvalidConfigf("invalid word n-gram range %v", m.WordNgram)
	case m.CharNgram[0] < 1 || m.CharNgram[0] > m.CharNgram[1]:
		return common.InvalidConfigf("invalid char n-gram range %v", m.CharNgram)
	case m.C <= 0:
		return common.InvalidConfigf("regularization C must be positive, got %v", m.C)
	case m.MaxIter < 1:
		return common.InvalidConfigf("max iterations must be >= 1, got %d", m.MaxIter)
	case m.Solver != SolverLBFGS && m.Solver != SolverGD && m.Solver != SolverSGD:
		return common.InvalidConfigf("unknown solver %q", m.Solver)
	case m.ClassWeight != ClassWeightBalanced && m.ClassWeight != ClassWeightNone:
		return common.InvalidConfigf("unknown class weight mode %q", m.ClassWeight)
	}
	return nil
}

// Categories returns the ordered, deduplicated category catalog.
func (r *Registry) Categories() []string {
	return append([]string(nil), r.categories...)
}

// HasCategory reports whether category belongs to the catalog.
func (r *Registry) HasCategory(category string) bool {
	for _, c := range r.categories {
		if c == category {
			return true
		}
	}
	return false
}

// Vocabulary returns the vocabulary entry for category.
func (r *Registry) Vocabulary(category string) (VocabularyEntry, error) {
	entry, ok := r.vocabulary[category]
	if !ok {
		return VocabularyEntry{}, fmt.Errorf("%w: %q has no vocabulary", common.ErrUnknownCategory, category)
	}
	return entry, nil
}

// VocabularyMap returns a copy of the whole vocabulary, keyed by category.
func (r *Registry) VocabularyMap() map[string]VocabularyEntry {
	out := make(map[string]VocabularyEntry, len(r.vocabulary))
	for k, v := range r.vocabulary {
		out[k] = v
	}
	return out
}

// AmountSpec returns the spec for category, or the default spec.
func (r *Registry) AmountSpec(category string) AmountSpec {
	if spec, ok := r.amounts[category]; ok {
		return spec
	}
	return r.defaultAmount
}

// DecimalPlaces is the default rounding precision for sampled amounts.
func (r *Registry) DecimalPlaces() int { return r.decimalPlaces }

// Time returns the timestamp generation settings.
func (r *Registry) Time() TimeSpec { return r.time }

// HourChoices returns the explicit hour candidates for category, if any.
func (r *Registry) HourChoices(category string) ([]int, bool) {
	hours, ok := r.time.HourChoices[category]
	return hours, ok
}

// Model returns the classifier hyperparameters.
func (r *Registry) Model() ModelSettings { return r.model }

// Seed is the default seed for synthetic data.
func (r *Registry) Seed() int64 { return r.seed }

// Snapshot returns the registry contents as plain options, for display.
func (r *Registry) Snapshot() RegistryOptions {
	amounts := make(map[string]AmountSpec, len(r.amounts))
	for k, v := range r.amounts {
		amounts[k] = v
	}
	return RegistryOptions{
		Categories:    r.Categories(),
		Vocabulary:    r.VocabularyMap(),
		Amounts:       amounts,
		DefaultAmount: r.defaultAmount,
		DecimalPlaces: r.decimalPlaces,
		Time:          r.time,
		Model:         r.model,
		Seed:          r.seed,
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func orderedPair(p [2]int) (int, int) {
	if p[0] > p[1] {
		return p[1], p[0]
	}
	return p[0], p[1]
}
