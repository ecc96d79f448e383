package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// TrainingProgress draws solver iterations as a progress bar.
type TrainingProgress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
}

// NewTrainingProgress creates a progress bar sized for maxIter iterations.
func NewTrainingProgress(writer io.Writer, maxIter int) *TrainingProgress {
	p := &TrainingProgress{writer: writer}
	p.bar = progressbar.NewOptions(maxIter,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Fitting model...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Update matches pipeline.ProgressFunc.
func (p *TrainingProgress) Update(iter, maxIter int, loss float64) {
	if maxIter > 0 && int64(maxIter) != p.bar.GetMax64() {
		p.bar.ChangeMax(maxIter)
	}
	p.bar.Describe(fmt.Sprintf("[cyan][bold]Fitting model[reset] loss=%.4f", loss))
	if err := p.bar.Set(iter); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar, even when the solver converged early.
func (p *TrainingProgress) Finish() {
	if p.bar.IsFinished() {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
