package pipeline

import (
	"fmt"
	"math"

	"github.com/Veraticus/pfm-classifier/internal/common"
)

// Scaler divides each numeric column by its population standard
// deviation. It does not centre the data; a constant column keeps scale 1.
type Scaler struct {
	Scale []float64 `json:"scale"`
}

// Fit learns per-column scales from rows.
func (s *Scaler) Fit(rows [][]float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: cannot fit scaler on zero rows", common.ErrInvalidInput)
	}
	width := len(rows[0])
	mean := make([]float64, width)
	for _, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: ragged numeric rows", common.ErrInvalidInput)
		}
		for j, x := range row {
			mean[j] += x
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}

	variance := make([]float64, width)
	for _, row := range rows {
		for j, x := range row {
			d := x - mean[j]
			variance[j] += d * d
		}
	}

	s.Scale = make([]float64, width)
	for j := range variance {
		std := math.Sqrt(variance[j] / n)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Scale[j] = std
	}
	return nil
}

// Width is the number of columns.
func (s *Scaler) Width() int { return len(s.Scale) }

// Transform scales rows. Zero entries are omitted from the sparse output.
func (s *Scaler) Transform(rows [][]float64) ([]Sparse, error) {
	if s.Scale == nil {
		return nil, ErrNotFitted
	}
	out := make([]Sparse, len(rows))
	for i, row := range rows {
		if len(row) != len(s.Scale) {
			return nil, fmt.Errorf("%w: row has %d columns, scaler expects %d", common.ErrInvalidInput, len(row), len(s.Scale))
		}
		var sp Sparse
		for j, x := range row {
			if x == 0 {
				continue
			}
			sp.Idx = append(sp.Idx, j)
			sp.Val = append(sp.Val, x/s.Scale[j])
		}
		out[i] = sp
	}
	return out, nil
}
