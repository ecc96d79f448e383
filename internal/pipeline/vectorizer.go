package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/Veraticus/pfm-classifier/internal/common"
)

// Analyzer selects how a vectorizer splits documents into terms.
type Analyzer string

// Supported analyzers.
const (
	// AnalyzerWord extracts word n-grams from tokens of two or more
	// letters, digits or underscores.
	AnalyzerWord Analyzer = "word"
	// AnalyzerCharWB extracts character n-grams from inside word
	// boundaries, padding each word with a space on either side.
	AnalyzerCharWB Analyzer = "char_wb"
)

// TfidfVectorizer learns a vocabulary and inverse document frequencies and
// maps documents to L2-normalised tf-idf vectors.
//
// idf(t) = ln((1+n)/(1+df(t))) + 1. Terms seen in fewer than MinDF
// training documents are dropped. Vocabulary indices follow the
// lexicographic order of the terms.
type TfidfVectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	Analyzer   Analyzer       `json:"analyzer"`
	IDF        []float64      `json:"idf"`
	NgramRange [2]int         `json:"ngram_range"`
	MinDF      int            `json:"min_df"`
}

// NewTfidfVectorizer returns an unfitted vectorizer.
func NewTfidfVectorizer(analyzer Analyzer, ngram [2]int, minDF int) *TfidfVectorizer {
	return &TfidfVectorizer{Analyzer: analyzer, NgramRange: ngram, MinDF: minDF}
}

// Fit learns the vocabulary and idf weights from docs.
func (v *TfidfVectorizer) Fit(docs []string) error {
	if v.NgramRange[0] < 1 || v.NgramRange[0] > v.NgramRange[1] {
		return common.InvalidConfigf("invalid ngram range %v", v.NgramRange)
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.analyze(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	minDF := max(v.MinDF, 1)
	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= minDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return fmt.Errorf("%w: empty vocabulary after min_df=%d on %d documents", common.ErrInvalidInput, minDF, len(docs))
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return nil
}

// Width is the vocabulary size.
func (v *TfidfVectorizer) Width() int { return len(v.IDF) }

// Transform maps docs to tf-idf rows. Unknown terms are ignored.
func (v *TfidfVectorizer) Transform(docs []string) ([]Sparse, error) {
	if v.Vocabulary == nil {
		return nil, ErrNotFitted
	}

	out := make([]Sparse, len(docs))
	for i, doc := range docs {
		counts := make(map[int]float64)
		for _, term := range v.analyze(doc) {
			if j, ok := v.Vocabulary[term]; ok {
				counts[j]++
			}
		}

		row := Sparse{Idx: make([]int, 0, len(counts)), Val: make([]float64, 0, len(counts))}
		for j := range counts {
			row.Idx = append(row.Idx, j)
		}
		sort.Ints(row.Idx)
		for _, j := range row.Idx {
			row.Val = append(row.Val, counts[j]*v.IDF[j])
		}
		row.normalize()
		out[i] = row
	}
	return out, nil
}

func (v *TfidfVectorizer) analyze(doc string) []string {
	doc = strings.ToLower(doc)
	if v.Analyzer == AnalyzerCharWB {
		return charWBNgrams(doc, v.NgramRange[0], v.NgramRange[1])
	}
	return wordNgrams(WordTokens(doc), v.NgramRange[0], v.NgramRange[1])
}

// WordTokens splits s into runs of letters, digits and underscores, keeping
// runs of at least two characters.
func WordTokens(s string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 && len([]rune(b.String())) >= 2 {
			tokens = append(tokens, b.String())
		}
		b.Reset()
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func wordNgrams(tokens []string, minN, maxN int) []string {
	if minN == 1 && maxN == 1 {
		return tokens
	}
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// CharWBNgrams returns the padded character n-grams of every whitespace
// separated word in s. A padded word shorter than n contributes itself
// once and stops the n loop for that word.
func CharWBNgrams(s string, minN, maxN int) []string {
	return charWBNgrams(strings.ToLower(s), minN, maxN)
}

func charWBNgrams(s string, minN, maxN int) []string {
	var out []string
	for _, word := range strings.Fields(s) {
		w := []rune(" " + word + " ")
		for n := minN; n <= maxN; n++ {
			offset := 0
			out = append(out, string(w[offset:min(offset+n, len(w))]))
			for offset+n < len(w) {
				offset++
				out = append(out, string(w[offset:offset+n]))
			}
			if offset == 0 {
				break
			}
		}
	}
	return out
}
