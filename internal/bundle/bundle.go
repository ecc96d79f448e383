// Package bundle persists a fitted model together with its label order.
//
// A bundle is a single JSON document:
//
//	{"format":"pfm-bundle","version":1,"kind":"logistic","labels":[...],"created_at":"...","model":{...}}
//
// Documents holding only a serialised logistic pipeline are also accepted;
// their labels are taken from the pipeline's learned classes.
package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/inference"
	"github.com/Veraticus/pfm-classifier/internal/pipeline"
)

// Format identifies bundle documents.
const (
	Format  = "pfm-bundle"
	Version = 1
)

// Bundle is a loaded model and the labels it was trained with. Exactly one
// of Pipeline and Bayes is set.
type Bundle struct {
	CreatedAt time.Time
	Pipeline  *pipeline.Pipeline
	Bayes     *pipeline.NaiveBayes
	Kind      string
	Labels    []string
}

type document struct {
	CreatedAt time.Time       `json:"created_at"`
	Format    string          `json:"format"`
	Kind      string          `json:"kind"`
	Model     json.RawMessage `json:"model"`
	Labels    []string        `json:"labels"`
	Version   int             `json:"version"`
}

// New wraps a fitted model. m must be a *pipeline.Pipeline or a
// *pipeline.NaiveBayes.
func New(m any, labels []string) (*Bundle, error) {
	b := &Bundle{Labels: append([]string(nil), labels...), CreatedAt: time.Now().UTC()}
	switch v := m.(type) {
	case *pipeline.Pipeline:
		if !v.Fitted() {
			return nil, pipeline.ErrNotFitted
		}
		b.Kind, b.Pipeline = config.ModelKindLogistic, v
	case *pipeline.NaiveBayes:
		if !v.Fitted() {
			return nil, pipeline.ErrNotFitted
		}
		b.Kind, b.Bayes = config.ModelKindBayes, v
	default:
		return nil, fmt.Errorf("unsupported model type %T", m)
	}
	return b, nil
}

// Capability exposes the bundle's model as a probability ranker or a
// label-only classifier.
func (b *Bundle) Capability() inference.Capability {
	switch b.Kind {
	case config.ModelKindLogistic:
		return inference.WithProbabilities(b.Pipeline)
	case config.ModelKindBayes:
		return inference.LabelOnly(b.Bayes)
	}
	return inference.Capability{}
}

// Encode writes b to w.
func (b *Bundle) Encode(w io.Writer) error {
	var model any
	switch b.Kind {
	case config.ModelKindLogistic:
		model = b.Pipeline
	case config.ModelKindBayes:
		model = b.Bayes
	default:
		return fmt.Errorf("unsupported model kind %q", b.Kind)
	}

	raw, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	doc := document{
		Format:    Format,
		Version:   Version,
		Kind:      b.Kind,
		Labels:    b.Labels,
		CreatedAt: b.CreatedAt,
		Model:     raw,
	}
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// Decode reads a bundle or a bare pipeline document from r.
func Decode(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: bundle is not valid JSON: %v", common.ErrInvalidInput, err)
	}
	if doc.Format == "" {
		return decodeBarePipeline(data)
	}
	if doc.Format != Format {
		return nil, fmt.Errorf("%w: unknown bundle format %q", common.ErrInvalidInput, doc.Format)
	}
	if doc.Version > Version {
		return nil, fmt.Errorf("%w: bundle version %d is newer than supported %d", common.ErrInvalidInput, doc.Version, Version)
	}

	b := &Bundle{Kind: doc.Kind, Labels: doc.Labels, CreatedAt: doc.CreatedAt}
	switch doc.Kind {
	case config.ModelKindLogistic:
		b.Pipeline = &pipeline.Pipeline{}
		if err := json.Unmarshal(doc.Model, b.Pipeline); err != nil {
			return nil, fmt.Errorf("failed to decode pipeline: %w", err)
		}
	case config.ModelKindBayes:
		b.Bayes = &pipeline.NaiveBayes{}
		if err := json.Unmarshal(doc.Model, b.Bayes); err != nil {
			return nil, fmt.Errorf("failed to decode bayes model: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", common.ErrInvalidInput, doc.Kind)
	}
	return b, nil
}

func decodeBarePipeline(data []byte) (*Bundle, error) {
	p := &pipeline.Pipeline{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	if p.Classifier == nil || len(p.Blocks) == 0 {
		return nil, fmt.Errorf("%w: document is neither a bundle nor a pipeline", common.ErrInvalidInput)
	}
	return &Bundle{Kind: config.ModelKindLogistic, Pipeline: p, Labels: p.Classes()}, nil
}

// Save writes m and labels to path, replacing any existing file.
func Save(path string, m any, labels []string) error {
	b, err := New(m, labels)
	if err != nil {
		return err
	}
	return b.WriteFile(path)
}

// WriteFile writes b to path through a temporary file in the same
// directory.
func (b *Bundle) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".bundle-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move bundle into place: %w", err)
	}
	return nil
}

// Load reads the bundle at path.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Source opens bundles from local paths and gs:// URIs.
type Source struct {
	CredentialsFile string
}

// Open implements inference.ModelSource.
func (s Source) Open(ctx context.Context, path string) (inference.Capability, error) {
	b, err := s.Load(ctx, path)
	if err != nil {
		return inference.Capability{}, err
	}
	return b.Capability(), nil
}

// Load reads a bundle from a local path or a gs:// URI.
func (s Source) Load(ctx context.Context, path string) (*Bundle, error) {
	if !config.IsRemotePath(path) {
		return Load(path)
	}

	store, err := NewGCS(ctx, s.CredentialsFile)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	data, err := store.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}
