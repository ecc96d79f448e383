package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/Veraticus/pfm-classifier/internal/storage"
	"github.com/Veraticus/pfm-classifier/internal/training"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(TableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		Headers(headers...)
}

func f2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func score(v float64) string {
	return ScoreStyle(v).Render(f2(v))
}

// RenderReport renders a classification report as a table followed by the
// accuracy and average rows.
func RenderReport(r *training.Report) string {
	t := newTable("Category", "Precision", "Recall", "F1", "Support")
	for _, c := range r.Classes {
		t.Row(c.Label, f2(c.Precision), f2(c.Recall), score(c.F1), strconv.Itoa(c.Support))
	}
	t.Row("accuracy", "", "", f2(r.Accuracy), strconv.Itoa(r.Total))
	for _, c := range []training.ClassMetrics{r.MacroAvg, r.WeightedAvg} {
		t.Row(c.Label, f2(c.Precision), f2(c.Recall), f2(c.F1), strconv.Itoa(c.Support))
	}
	return t.String()
}

// RenderTrainingSummary renders the outcome of a training run in a box.
func RenderTrainingSummary(res *training.Result, modelPath string) string {
	split := "stratified"
	if !res.Split.Stratified {
		split = "shuffled (not stratified)"
	}
	summary := fmt.Sprintf("  • Model: %s (%d labels)\n", res.Kind, len(res.Labels)) +
		fmt.Sprintf("  • Rows: %d train / %d test, %s\n", res.TrainRows, res.TestRows, split) +
		fmt.Sprintf("  • Accuracy: %s, macro F1: %s\n", f2(res.Report.Accuracy), f2(res.Report.MacroAvg.F1)) +
		fmt.Sprintf("  • Time taken: %s\n", res.Duration.Round(time.Millisecond)) +
		fmt.Sprintf("  • Saved to: %s", modelPath)
	return RenderBox(ModelIcon+" Training Complete", summary)
}

// RenderPredictions renders one line per transaction with its predicted
// category. Probabilistic results also show the top-1 probability and the
// runner-up categories.
func RenderPredictions(txns []model.RawTransaction, results []model.PredictionResult) string {
	t := newTable("Date", "Merchant", "Amount", "Category", "Probability", "Alternatives")
	for i, txn := range txns {
		if i >= len(results) {
			break
		}
		res := results[i]
		prob, alts := "", ""
		if res.HasProbabilities() {
			prob = score(res.Top1.Probability)
			for j, alt := range res.TopK {
				if j == 0 {
					continue
				}
				if alts != "" {
					alts += ", "
				}
				alts += fmt.Sprintf("%s %s", alt.Category, f2(alt.Probability))
			}
		}
		t.Row(txn.Timestamp, txn.Merchant, f2(txn.Amount), res.Label(), prob, alts)
	}
	return t.String()
}

// RenderRuns renders recorded training runs, newest first.
func RenderRuns(runs []storage.TrainingRun) string {
	t := newTable("Created", "Kind", "Accuracy", "Macro F1", "Train", "Test", "Model")
	for _, r := range runs {
		t.Row(
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.ModelKind,
			f2(r.Accuracy),
			f2(r.MacroF1),
			strconv.Itoa(r.TrainRows),
			strconv.Itoa(r.TestRows),
			r.ModelPath,
		)
	}
	return t.String()
}

// RenderDatasets renders stored datasets, newest first.
func RenderDatasets(sets []storage.Dataset) string {
	t := newTable("ID", "Name", "Source", "Rows", "Created")
	for _, d := range sets {
		t.Row(d.ID, d.Name, d.Source, strconv.Itoa(d.RowCount), d.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return t.String()
}
