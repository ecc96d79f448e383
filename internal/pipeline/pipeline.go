// Package pipeline implements the trainable text+numeric classifiers.
//
// A Pipeline is an ordered list of named feature blocks feeding a
// multinomial logistic regression:
//
//	tfidf_words          word 1..2-grams over combined_text
//	tfidf_merchant_char  char_wb 3..5-grams over merchant_text
//	numeric              amount, hour, day_of_week, is_weekend, std-scaled
//
// Block outputs are concatenated in list order. NaiveBayes is a label-only
// alternative exposing Predict without probabilities.
package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/model"
)

// ErrNotFitted is returned when inference is attempted before Fit.
var ErrNotFitted = fmt.Errorf("%w: call Fit first", common.ErrModelNotFitted)

// Block names.
const (
	BlockWords        = "tfidf_words"
	BlockMerchantChar = "tfidf_merchant_char"
	BlockNumeric      = "numeric"
)

// Block is one named feature transformer bound to its input columns.
// Exactly one of Text or Scaler is set.
type Block struct {
	Text    *TfidfVectorizer `json:"text,omitempty"`
	Scaler  *Scaler          `json:"scaler,omitempty"`
	Name    string           `json:"name"`
	Columns []string         `json:"columns"`
}

func (b *Block) fit(rows []model.FeatureRecord) error {
	switch {
	case b.Text != nil:
		docs, err := b.textColumn(rows)
		if err != nil {
			return err
		}
		return b.Text.Fit(docs)
	case b.Scaler != nil:
		values, err := b.numericColumns(rows)
		if err != nil {
			return err
		}
		return b.Scaler.Fit(values)
	}
	return fmt.Errorf("block %q has no transformer", b.Name)
}

func (b *Block) transform(rows []model.FeatureRecord) ([]Sparse, error) {
	switch {
	case b.Text != nil:
		docs, err := b.textColumn(rows)
		if err != nil {
			return nil, err
		}
		return b.Text.Transform(docs)
	case b.Scaler != nil:
		values, err := b.numericColumns(rows)
		if err != nil {
			return nil, err
		}
		return b.Scaler.Transform(values)
	}
	return nil, fmt.Errorf("block %q has no transformer", b.Name)
}

func (b *Block) width() int {
	if b.Text != nil {
		return b.Text.Width()
	}
	if b.Scaler != nil {
		return b.Scaler.Width()
	}
	return 0
}

func (b *Block) textColumn(rows []model.FeatureRecord) ([]string, error) {
	if len(b.Columns) != 1 {
		return nil, fmt.Errorf("text block %q needs exactly one column", b.Name)
	}
	docs := make([]string, len(rows))
	for i, r := range rows {
		s, ok := r.Text(b.Columns[0])
		if !ok {
			return nil, fmt.Errorf("block %q: %q is not a text column", b.Name, b.Columns[0])
		}
		docs[i] = s
	}
	return docs, nil
}

func (b *Block) numericColumns(rows []model.FeatureRecord) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(b.Columns))
		for j, col := range b.Columns {
			v, ok := r.Numeric(col)
			if !ok {
				return nil, fmt.Errorf("block %q: %q is not a numeric column", b.Name, col)
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// Pipeline is the composite feature blocks + logistic classifier.
type Pipeline struct {
	Classifier *Logistic `json:"classifier"`
	Blocks     []Block   `json:"blocks"`
	ClassList  []string  `json:"classes"`
}

// New builds an unfitted pipeline from settings.
func New(settings config.ModelSettings) *Pipeline {
	return &Pipeline{
		Blocks: []Block{
			{
				Name:    BlockWords,
				Columns: []string{model.ColumnCombinedText},
				Text:    NewTfidfVectorizer(AnalyzerWord, settings.WordNgram, settings.WordMinDF),
			},
			{
				Name:    BlockMerchantChar,
				Columns: []string{model.ColumnMerchantText},
				Text:    NewTfidfVectorizer(AnalyzerCharWB, settings.CharNgram, settings.CharMinDF),
			},
			{
				Name:    BlockNumeric,
				Columns: append([]string(nil), model.NumericColumns...),
				Scaler:  &Scaler{},
			},
		},
		Classifier: NewLogistic(settings),
	}
}

// SetProgress installs a training progress callback.
func (p *Pipeline) SetProgress(fn ProgressFunc) {
	p.Classifier.Progress = fn
}

// Fitted reports whether Fit has completed.
func (p *Pipeline) Fitted() bool {
	return p.Classifier != nil && p.Classifier.Fitted() && len(p.ClassList) > 0
}

// Classes returns the learned class labels in probability column order.
func (p *Pipeline) Classes() []string {
	return append([]string(nil), p.ClassList...)
}

// Fit trains every block and the classifier. Classes take the order of
// classOrder restricted to labels present in the data; a nil classOrder
// sorts the labels. A failed Fit leaves the pipeline unfitted.
func (p *Pipeline) Fit(rows []model.FeatureRecord, labels []string, classOrder []string) error {
	if len(rows) != len(labels) {
		return fmt.Errorf("%w: %d rows for %d labels", common.ErrInvalidInput, len(rows), len(labels))
	}
	classes, y, err := EncodeLabels(labels, classOrder)
	if err != nil {
		return err
	}

	// Blocks are refit in place, so old and new state must never mix.
	p.ClassList = nil
	for i := range p.Blocks {
		if err := p.Blocks[i].fit(rows); err != nil {
			return fmt.Errorf("fit %s: %w", p.Blocks[i].Name, err)
		}
	}

	x, width, err := p.transform(rows)
	if err != nil {
		return err
	}
	if err := p.Classifier.Fit(x, y, len(classes), width); err != nil {
		return fmt.Errorf("fit classifier: %w", err)
	}
	p.ClassList = classes
	return nil
}

// PredictProba returns per-row probabilities aligned with Classes().
func (p *Pipeline) PredictProba(rows []model.FeatureRecord) ([][]float64, error) {
	if !p.Fitted() {
		return nil, ErrNotFitted
	}
	x, width, err := p.transform(rows)
	if err != nil {
		return nil, err
	}
	if width != p.Classifier.Features {
		return nil, fmt.Errorf("feature width %d does not match classifier width %d", width, p.Classifier.Features)
	}
	return p.Classifier.PredictProba(x)
}

// Predict returns the most probable class per row. Ties go to the
// earlier class.
func (p *Pipeline) Predict(rows []model.FeatureRecord) ([]string, error) {
	probs, err := p.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(probs))
	for i, row := range probs {
		best := 0
		for c := range row {
			if row[c] > row[best] {
				best = c
			}
		}
		out[i] = p.ClassList[best]
	}
	return out, nil
}

func (p *Pipeline) transform(rows []model.FeatureRecord) ([]Sparse, int, error) {
	blocks := make([][]Sparse, len(p.Blocks))
	widths := make([]int, len(p.Blocks))
	total := 0
	for i := range p.Blocks {
		out, err := p.Blocks[i].transform(rows)
		if err != nil {
			if errors.Is(err, common.ErrModelNotFitted) {
				return nil, 0, err
			}
			return nil, 0, fmt.Errorf("transform %s: %w", p.Blocks[i].Name, err)
		}
		blocks[i] = out
		widths[i] = p.Blocks[i].width()
		total += widths[i]
	}
	return hstack(blocks, widths), total, nil
}

// EncodeLabels resolves the class list and maps labels to class indices.
// Every label must appear in classOrder when classOrder is non-nil. At
// least two distinct classes are required.
func EncodeLabels(labels []string, classOrder []string) ([]string, []int, error) {
	present := make(map[string]bool)
	for _, l := range labels {
		present[l] = true
	}

	var classes []string
	if classOrder == nil {
		for l := range present {
			classes = append(classes, l)
		}
		sort.Strings(classes)
	} else {
		known := make(map[string]bool, len(classOrder))
		for _, c := range classOrder {
			known[c] = true
			if present[c] {
				classes = append(classes, c)
				present[c] = false
			}
		}
		for _, l := range labels {
			if !known[l] {
				return nil, nil, fmt.Errorf("%w: label %q", common.ErrUnknownCategory, l)
			}
		}
	}
	if len(classes) < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 classes, got %d", common.ErrInvalidInput, len(classes))
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}
	return classes, y, nil
}
