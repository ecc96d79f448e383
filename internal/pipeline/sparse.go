package pipeline

import "math"

// Sparse is a sparse row vector with strictly increasing indices.
type Sparse struct {
	Idx []int
	Val []float64
}

// Dot returns the dot product of s with the dense weights w.
func (s Sparse) Dot(w []float64) float64 {
	var sum float64
	for i, j := range s.Idx {
		sum += s.Val[i] * w[j]
	}
	return sum
}

// SquaredNorm returns the squared L2 norm.
func (s Sparse) SquaredNorm() float64 {
	var sum float64
	for _, v := range s.Val {
		sum += v * v
	}
	return sum
}

// normalize scales s to unit L2 norm in place; the zero vector is left alone.
func (s Sparse) normalize() {
	norm := math.Sqrt(s.SquaredNorm())
	if norm == 0 {
		return
	}
	for i := range s.Val {
		s.Val[i] /= norm
	}
}

// hstack concatenates row blocks horizontally. widths[b] is the column
// count of block b.
func hstack(blocks [][]Sparse, widths []int) []Sparse {
	if len(blocks) == 0 {
		return nil
	}
	rows := len(blocks[0])
	out := make([]Sparse, rows)
	for r := 0; r < rows; r++ {
		var nnz int
		for _, b := range blocks {
			nnz += len(b[r].Idx)
		}
		row := Sparse{Idx: make([]int, 0, nnz), Val: make([]float64, 0, nnz)}
		offset := 0
		for bi, b := range blocks {
			for k, j := range b[r].Idx {
				row.Idx = append(row.Idx, offset+j)
				row.Val = append(row.Val, b[r].Val[k])
			}
			offset += widths[bi]
		}
		out[r] = row
	}
	return out
}
