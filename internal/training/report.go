package training

import (
	"fmt"
	"strings"

	"github.com/Veraticus/pfm-classifier/internal/common"
)

// ClassMetrics are the precision, recall, F1 and support of one label.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a per-class evaluation of predictions against a held-out set.
// Divisions by zero yield 0.
type Report struct {
	Classes     []ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	Accuracy    float64        `json:"accuracy"`
	Total       int            `json:"total"`
}

// NewReport scores predicted against truth for every label in labels, in
// that order. Labels absent from both columns report zeros.
func NewReport(truth, predicted, labels []string) (*Report, error) {
	if len(truth) != len(predicted) {
		return nil, fmt.Errorf("%w: %d true labels for %d predictions", common.ErrInvalidInput, len(truth), len(predicted))
	}

	tp := make(map[string]int)
	predCount := make(map[string]int)
	trueCount := make(map[string]int)
	correct := 0
	for i := range truth {
		trueCount[truth[i]]++
		predCount[predicted[i]]++
		if truth[i] == predicted[i] {
			tp[truth[i]]++
			correct++
		}
	}

	r := &Report{Total: len(truth), Classes: make([]ClassMetrics, 0, len(labels))}
	if len(truth) > 0 {
		r.Accuracy = float64(correct) / float64(len(truth))
	}

	var supportSum int
	for _, l := range labels {
		m := ClassMetrics{
			Label:     l,
			Precision: ratio(tp[l], predCount[l]),
			Recall:    ratio(tp[l], trueCount[l]),
			Support:   trueCount[l],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		r.MacroAvg.Precision += m.Precision
		r.MacroAvg.Recall += m.Recall
		r.MacroAvg.F1 += m.F1
		r.WeightedAvg.Precision += m.Precision * float64(m.Support)
		r.WeightedAvg.Recall += m.Recall * float64(m.Support)
		r.WeightedAvg.F1 += m.F1 * float64(m.Support)
		supportSum += m.Support
	}

	r.MacroAvg.Label, r.WeightedAvg.Label = "macro avg", "weighted avg"
	r.MacroAvg.Support, r.WeightedAvg.Support = supportSum, supportSum
	if n := float64(len(labels)); n > 0 {
		r.MacroAvg.Precision /= n
		r.MacroAvg.Recall /= n
		r.MacroAvg.F1 /= n
	}
	if supportSum > 0 {
		s := float64(supportSum)
		r.WeightedAvg.Precision /= s
		r.WeightedAvg.Recall /= s
		r.WeightedAvg.F1 /= s
	} else {
		r.WeightedAvg = ClassMetrics{Label: "weighted avg"}
	}
	return r, nil
}

// String renders the report as a plain-text table.
func (r *Report) String() string {
	width := len("weighted avg")
	for _, c := range r.Classes {
		width = max(width, len(c.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Total)
	for _, c := range []ClassMetrics{r.MacroAvg, r.WeightedAvg} {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	return b.String()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
