package training

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/Veraticus/pfm-classifier/internal/common"
)

// Split is a train/test partition expressed as row indices into the
// original dataset. Both index lists are ascending.
type Split struct {
	Train      []int
	Test       []int
	Stratified bool
}

// CanStratify reports whether a stratified split is feasible: every class
// needs at least two rows and at least one row on each side of the split.
func CanStratify(labels []string, testSize float64) bool {
	counts := classCounts(labels)
	if len(counts) == 0 {
		return false
	}
	for _, n := range counts {
		c := float64(n)
		if n < 2 || c*testSize < 1 || c*(1-testSize) < 1 {
			return false
		}
	}
	return true
}

// TrainTestSplit partitions labels into train and test indices. It
// stratifies by label when CanStratify allows and otherwise shuffles the
// whole dataset. The result is a pure function of the inputs.
func TrainTestSplit(labels []string, testSize float64, seed int64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, common.InvalidConfigf("test size must be in (0, 1), got %v", testSize)
	}
	if len(labels) < 2 {
		return Split{}, fmt.Errorf("%w: need at least 2 rows to split, got %d", common.ErrInvalidInput, len(labels))
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0xda3e39cb94b95bdb))
	var s Split
	if CanStratify(labels, testSize) {
		s = stratified(labels, testSize, rng)
	} else {
		s = shuffled(len(labels), testSize, rng)
	}
	sort.Ints(s.Train)
	sort.Ints(s.Test)
	return s, nil
}

func stratified(labels []string, testSize float64, rng *rand.Rand) Split {
	byClass := make(map[string][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	s := Split{Stratified: true}
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := max(1, int(math.Round(float64(len(idx))*testSize)))
		s.Test = append(s.Test, idx[:nTest]...)
		s.Train = append(s.Train, idx[nTest:]...)
	}
	return s
}

func shuffled(n int, testSize float64, rng *rand.Rand) Split {
	perm := rng.Perm(n)
	nTest := int(math.Ceil(float64(n) * testSize))
	nTest = min(max(nTest, 1), n-1)
	return Split{Test: perm[:nTest], Train: perm[nTest:]}
}

func classCounts(labels []string) map[string]int {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	return counts
}
