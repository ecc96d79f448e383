package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/jbrukh/bayesian"
)

// NaiveBayes is a multinomial naive Bayes classifier over word tokens of
// combined_text, char_wb n-grams of merchant_text and coarse numeric
// tokens. It returns labels only; callers fall back to the single-label
// response shape.
type NaiveBayes struct {
	clf       *bayesian.Classifier
	classes   []string
	charNgram [2]int
}

// NewNaiveBayes returns an unfitted classifier.
func NewNaiveBayes(settings config.ModelSettings) *NaiveBayes {
	return &NaiveBayes{charNgram: settings.CharNgram}
}

// Fitted reports whether Fit has completed.
func (nb *NaiveBayes) Fitted() bool { return nb.clf != nil }

// Classes returns the learned class labels.
func (nb *NaiveBayes) Classes() []string {
	return append([]string(nil), nb.classes...)
}

// Fit learns term frequencies per class. Class ordering follows
// EncodeLabels.
func (nb *NaiveBayes) Fit(rows []model.FeatureRecord, labels []string, classOrder []string) error {
	if len(rows) != len(labels) {
		return fmt.Errorf("%w: %d rows for %d labels", common.ErrInvalidInput, len(rows), len(labels))
	}
	classes, y, err := EncodeLabels(labels, classOrder)
	if err != nil {
		return err
	}

	bc := make([]bayesian.Class, len(classes))
	for i, c := range classes {
		bc[i] = bayesian.Class(c)
	}
	clf := bayesian.NewClassifier(bc...)
	for i, r := range rows {
		clf.Learn(nb.terms(r), bc[y[i]])
	}

	nb.clf = clf
	nb.classes = classes
	return nil
}

// Predict returns the highest scoring class per row.
func (nb *NaiveBayes) Predict(rows []model.FeatureRecord) ([]string, error) {
	if !nb.Fitted() {
		return nil, ErrNotFitted
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		_, best, _ := nb.clf.LogScores(nb.terms(r))
		out[i] = nb.classes[best]
	}
	return out, nil
}

func (nb *NaiveBayes) terms(r model.FeatureRecord) []string {
	terms := WordTokens(r.CombinedText)
	for _, g := range charWBNgrams(r.MerchantText, nb.charNgram[0], nb.charNgram[1]) {
		terms = append(terms, "c:"+g)
	}

	sign := "pos"
	if r.Amount < 0 {
		sign = "neg"
	}
	magnitude := int(math.Floor(math.Log10(math.Abs(r.Amount) + 1)))
	return append(terms,
		"amount:"+sign,
		"magnitude:"+strconv.Itoa(magnitude),
		"hour:"+strconv.Itoa(r.Hour),
		"weekend:"+strconv.Itoa(r.IsWeekend),
	)
}

type naiveBayesState struct {
	Classes   []string `json:"classes"`
	Model     []byte   `json:"model"`
	CharNgram [2]int   `json:"char_ngram"`
}

// MarshalJSON stores the classifier's gob state as base64 inside JSON.
func (nb *NaiveBayes) MarshalJSON() ([]byte, error) {
	if !nb.Fitted() {
		return nil, ErrNotFitted
	}
	var buf bytes.Buffer
	if err := nb.clf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode bayes model: %w", err)
	}
	return json.Marshal(naiveBayesState{Classes: nb.classes, Model: buf.Bytes(), CharNgram: nb.charNgram})
}

// UnmarshalJSON restores a classifier written by MarshalJSON.
func (nb *NaiveBayes) UnmarshalJSON(data []byte) error {
	var state naiveBayesState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	clf, err := bayesian.NewClassifierFromReader(bytes.NewReader(state.Model))
	if err != nil {
		return fmt.Errorf("decode bayes model: %w", err)
	}
	if len(clf.Classes) != len(state.Classes) {
		return fmt.Errorf("bayes model has %d classes, label list has %d", len(clf.Classes), len(state.Classes))
	}
	nb.clf = clf
	nb.classes = state.Classes
	nb.charNgram = state.CharNgram
	return nil
}
