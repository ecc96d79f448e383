package pipeline

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"gonum.org/v1/gonum/optimize"
)

// ProgressFunc receives the iteration number, the iteration cap and the
// current objective value while a classifier trains.
type ProgressFunc func(iter, maxIter int, loss float64)

// Logistic is an L2-regularised multinomial logistic regression.
//
// The minimised objective is
//
//	(1/n) Σ_i s_i · CE(softmax(W·x_i + b), y_i) + (λ/2)‖W‖²,  λ = 1/(C·n)
//
// where s_i is the class weight of sample i. Intercepts are not penalised.
type Logistic struct {
	Progress   ProgressFunc `json:"-"`
	Weights    [][]float64  `json:"weights"`
	Intercepts []float64    `json:"intercepts"`
	Solver     string       `json:"solver"`
	ClassWt    string       `json:"class_weight"`
	C          float64      `json:"c"`
	Tol        float64      `json:"tol"`
	MaxIter    int          `json:"max_iter"`
	Seed       int64        `json:"random_state"`
	Features   int          `json:"n_features"`
	Iterations int          `json:"n_iter"`
	Converged  bool         `json:"converged"`
}

// NewLogistic returns an unfitted classifier configured from settings.
func NewLogistic(settings config.ModelSettings) *Logistic {
	return &Logistic{
		Solver:  settings.Solver,
		ClassWt: settings.ClassWeight,
		C:       settings.C,
		Tol:     settings.Tol,
		MaxIter: settings.MaxIter,
		Seed:    settings.RandomState,
	}
}

// Fitted reports whether weights have been learned.
func (l *Logistic) Fitted() bool { return len(l.Weights) > 0 }

// Fit learns weights for k classes from rows of width features. y holds
// class indices in [0, k).
func (l *Logistic) Fit(x []Sparse, y []int, k, features int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("%w: %d rows for %d labels", common.ErrInvalidInput, len(x), len(y))
	}
	if k < 2 {
		return fmt.Errorf("%w: need at least 2 classes, got %d", common.ErrInvalidInput, k)
	}
	if l.C <= 0 {
		return common.InvalidConfigf("C must be > 0, got %v", l.C)
	}

	l.Features = features
	l.Weights = make([][]float64, k)
	for c := range l.Weights {
		l.Weights[c] = make([]float64, features)
	}
	l.Intercepts = make([]float64, k)

	p := &problem{
		x:       x,
		y:       y,
		k:       k,
		d:       features,
		weights: sampleWeights(y, k, l.ClassWt),
		lambda:  1 / (l.C * float64(len(x))),
	}

	switch l.Solver {
	case config.SolverLBFGS, "":
		if err := l.fitLBFGS(p); err != nil {
			l.Weights, l.Intercepts = nil, nil
			return err
		}
	case config.SolverGD:
		l.fitGD(p)
	case config.SolverSGD:
		l.fitSGD(p)
	default:
		return common.InvalidConfigf("unknown solver %q", l.Solver)
	}
	return nil
}

// PredictProba returns one probability row per input, columns in class
// index order.
func (l *Logistic) PredictProba(x []Sparse) ([][]float64, error) {
	if !l.Fitted() {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = make([]float64, len(l.Weights))
		l.probabilities(row, l.Weights, l.Intercepts, out[i])
	}
	return out, nil
}

func (l *Logistic) probabilities(row Sparse, w [][]float64, b, dst []float64) {
	for c := range w {
		dst[c] = row.Dot(w[c]) + b[c]
	}
	softmax(dst)
}

func (l *Logistic) report(iter int, p *problem, w [][]float64, b []float64) {
	if l.Progress != nil {
		l.Progress(iter, l.MaxIter, p.loss(w, b))
	}
}

// fitLBFGS minimises the objective with gonum's limited-memory BFGS over
// the flattened parameter vector [W row-major | b]. Training stops when
// the largest gradient entry drops below Tol or after MaxIter major
// iterations.
func (l *Logistic) fitLBFGS(p *problem) error {
	w, b := l.Weights, l.Intercepts
	gw, gb := zeroMatrix(p.k, p.d), make([]float64, p.k)

	unpack := func(x []float64) {
		for c := 0; c < p.k; c++ {
			copy(w[c], x[c*p.d:(c+1)*p.d])
		}
		copy(b, x[p.k*p.d:])
	}

	prob := optimize.Problem{
		Func: func(x []float64) float64 {
			unpack(x)
			return p.loss(w, b)
		},
		Grad: func(grad, x []float64) {
			unpack(x)
			p.gradient(w, b, gw, gb)
			for c := 0; c < p.k; c++ {
				copy(grad[c*p.d:(c+1)*p.d], gw[c])
			}
			copy(grad[p.k*p.d:], gb)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: l.Tol,
		MajorIterations:   max(l.MaxIter, 1),
		Recorder:          progressRecorder{fn: l.Progress, maxIter: l.MaxIter},
	}

	result, err := optimize.Minimize(prob, make([]float64, p.k*(p.d+1)), settings, &optimize.LBFGS{})
	if result == nil || len(result.X) == 0 {
		return fmt.Errorf("lbfgs: %w", err)
	}
	// A line search that stalls next to the optimum still leaves a usable
	// location; only a non-finite objective is fatal.
	if err != nil && (math.IsNaN(result.F) || math.IsInf(result.F, 0)) {
		return fmt.Errorf("lbfgs: %w", err)
	}

	unpack(result.X)
	l.Iterations = max(result.Stats.MajorIterations, 1)
	l.Converged = result.Status == optimize.GradientThreshold || result.Status == optimize.FunctionConvergence
	if l.Progress != nil {
		l.Progress(l.Iterations, l.MaxIter, result.F)
	}
	return nil
}

// progressRecorder forwards major iterations to a ProgressFunc.
type progressRecorder struct {
	fn      ProgressFunc
	maxIter int
}

func (r progressRecorder) Init() error { return nil }

func (r progressRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if r.fn != nil && op == optimize.MajorIteration && stats.MajorIterations%10 == 0 {
		r.fn(stats.MajorIterations, r.maxIter, loc.F)
	}
	return nil
}

// fitGD runs full-batch gradient descent with Nesterov momentum. The step
// size is the inverse of an upper bound on the gradient's Lipschitz
// constant. Training stops when the largest gradient entry drops below Tol.
func (l *Logistic) fitGD(p *problem) {
	var maxCurv float64
	for i, row := range p.x {
		maxCurv = math.Max(maxCurv, p.weights[i]*(row.SquaredNorm()+1))
	}
	step := 1 / (0.5*maxCurv + p.lambda)

	w, b := l.Weights, l.Intercepts
	yw, yb := cloneMatrix(w), append([]float64(nil), b...)
	gw, gb := zeroMatrix(p.k, p.d), make([]float64, p.k)

	l.Converged = false
	for iter := 1; iter <= max(l.MaxIter, 1); iter++ {
		gradNorm := p.gradient(yw, yb, gw, gb)
		l.Iterations = iter
		if gradNorm < l.Tol {
			copyMatrix(w, yw)
			copy(b, yb)
			l.Converged = true
			break
		}

		momentum := float64(iter-1) / float64(iter+2)
		for c := 0; c < p.k; c++ {
			for j := 0; j < p.d; j++ {
				next := yw[c][j] - step*gw[c][j]
				yw[c][j] = next + momentum*(next-w[c][j])
				w[c][j] = next
			}
			next := yb[c] - step*gb[c]
			yb[c] = next + momentum*(next-b[c])
			b[c] = next
		}

		if iter%100 == 0 {
			l.report(iter, p, w, b)
		}
	}
	l.report(l.Iterations, p, w, b)
}

// fitSGD runs per-sample stochastic gradient descent over shuffled epochs.
// Weights are stored as scale·V so the L2 shrink stays O(1) per sample.
// Training stops when an epoch improves the objective by less than Tol.
func (l *Logistic) fitSGD(p *problem) {
	rng := rand.New(rand.NewPCG(uint64(l.Seed), uint64(l.Seed)^0x5851f42d4c957f2d))
	v, b := l.Weights, l.Intercepts
	scale := 1.0

	var maxNorm float64
	for _, row := range p.x {
		maxNorm = math.Max(maxNorm, row.SquaredNorm()+1)
	}
	eta0 := 1 / maxNorm

	order := make([]int, len(p.x))
	for i := range order {
		order[i] = i
	}
	probs := make([]float64, p.k)
	scaled := func() [][]float64 {
		out := cloneMatrix(v)
		for c := range out {
			for j := range out[c] {
				out[c][j] *= scale
			}
		}
		return out
	}

	prev := math.Inf(1)
	t := 0.0
	l.Converged = false
	for epoch := 1; epoch <= max(l.MaxIter, 1); epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			t++
			eta := eta0 / (1 + eta0*p.lambda*t)
			row := p.x[i]

			for c := 0; c < p.k; c++ {
				probs[c] = scale*row.Dot(v[c]) + b[c]
			}
			softmax(probs)

			scale *= 1 - eta*p.lambda
			for c := 0; c < p.k; c++ {
				g := probs[c]
				if c == p.y[i] {
					g--
				}
				g *= p.weights[i]
				for k, j := range row.Idx {
					v[c][j] -= eta * g * row.Val[k] / scale
				}
				b[c] -= eta * g
			}

			if scale < 1e-9 {
				for c := range v {
					for j := range v[c] {
						v[c][j] *= scale
					}
				}
				scale = 1
			}
		}

		l.Iterations = epoch
		loss := p.loss(scaled(), b)
		if l.Progress != nil {
			l.Progress(epoch, l.MaxIter, loss)
		}
		if math.Abs(prev-loss) < l.Tol {
			l.Converged = true
			break
		}
		prev = loss
	}

	for c := range v {
		for j := range v[c] {
			v[c][j] *= scale
		}
	}
}

type problem struct {
	x       []Sparse
	y       []int
	weights []float64
	k, d    int
	lambda  float64
}

// gradient writes the objective gradient at (w, b) into (gw, gb) and
// returns its largest absolute entry.
func (p *problem) gradient(w [][]float64, b []float64, gw [][]float64, gb []float64) float64 {
	for c := range gw {
		for j := range gw[c] {
			gw[c][j] = 0
		}
		gb[c] = 0
	}

	n := float64(len(p.x))
	probs := make([]float64, p.k)
	for i, row := range p.x {
		for c := 0; c < p.k; c++ {
			probs[c] = row.Dot(w[c]) + b[c]
		}
		softmax(probs)
		for c := 0; c < p.k; c++ {
			g := probs[c]
			if c == p.y[i] {
				g--
			}
			g *= p.weights[i] / n
			for k, j := range row.Idx {
				gw[c][j] += g * row.Val[k]
			}
			gb[c] += g
		}
	}

	var norm float64
	for c := range gw {
		for j := range gw[c] {
			gw[c][j] += p.lambda * w[c][j]
			norm = math.Max(norm, math.Abs(gw[c][j]))
		}
		norm = math.Max(norm, math.Abs(gb[c]))
	}
	return norm
}

func (p *problem) loss(w [][]float64, b []float64) float64 {
	n := float64(len(p.x))
	probs := make([]float64, p.k)
	var total float64
	for i, row := range p.x {
		for c := 0; c < p.k; c++ {
			probs[c] = row.Dot(w[c]) + b[c]
		}
		softmax(probs)
		total -= p.weights[i] * math.Log(math.Max(probs[p.y[i]], 1e-300))
	}
	var reg float64
	for c := range w {
		for _, x := range w[c] {
			reg += x * x
		}
	}
	return total/n + 0.5*p.lambda*reg
}

// sampleWeights expands per-class weights to per-sample weights. Balanced
// weighting gives class c the weight n / (k · count_c).
func sampleWeights(y []int, k int, mode string) []float64 {
	out := make([]float64, len(y))
	if mode != config.ClassWeightBalanced {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	counts := make([]int, k)
	for _, c := range y {
		counts[c]++
	}
	n := float64(len(y))
	for i, c := range y {
		out[i] = n / (float64(k) * float64(counts[c]))
	}
	return out
}

func softmax(z []float64) {
	hi := math.Inf(-1)
	for _, v := range z {
		hi = math.Max(hi, v)
	}
	var sum float64
	for i, v := range z {
		z[i] = math.Exp(v - hi)
		sum += z[i]
	}
	for i := range z {
		z[i] /= sum
	}
}

func zeroMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = append([]float64(nil), m[i]...)
	}
	return out
}

func copyMatrix(dst, src [][]float64) {
	for i := range src {
		copy(dst[i], src[i])
	}
}
