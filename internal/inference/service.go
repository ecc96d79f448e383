package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/features"
	"github.com/Veraticus/pfm-classifier/internal/model"
)

// Request is one transaction to classify.
type Request struct {
	Amount      *float64 `json:"amount"`
	Merchant    string   `json:"merchant"`
	Description string   `json:"description"`
	Timestamp   string   `json:"iso_datetime"`
	TopK        *int     `json:"topk"`
}

// Input is the normalised request echoed back in a Response.
type Input struct {
	Merchant    string  `json:"merchant"`
	Description string  `json:"description"`
	Timestamp   string  `json:"iso_datetime"`
	Amount      float64 `json:"amount"`
	TopK        int     `json:"topk"`
}

// Response is the prediction for one Request. It marshals as either
// {input, top1, topk} or {input, prediction}.
type Response struct {
	Input Input `json:"input"`
	model.PredictionResult
}

// Health is a snapshot of the service state.
type Health struct {
	Status      string `json:"status"`
	ModelPath   string `json:"model_path"`
	ModelKind   string `json:"model_kind,omitempty"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Options configure a Service.
type Options struct {
	ModelPath   string
	DefaultTopK int
	MaxTopK     int
}

// Service holds the loaded model and answers prediction requests. The
// model is swapped in atomically by Load and never mutated afterwards, so
// Predict is safe for concurrent use.
type Service struct {
	source  ModelSource
	current atomic.Pointer[loadedModel]
	opts    Options
}

type loadedModel struct {
	capability Capability
	path       string
}

// NewService creates a service that loads models through source.
func NewService(source ModelSource, opts Options) *Service {
	if opts.DefaultTopK == 0 {
		opts.DefaultTopK = config.DefaultTopK
	}
	if opts.MaxTopK == 0 {
		opts.MaxTopK = config.MaxTopK
	}
	return &Service{source: source, opts: opts}
}

// Load opens the configured model path and installs it.
func (s *Service) Load(ctx context.Context) error {
	return s.LoadFrom(ctx, s.opts.ModelPath)
}

// LoadFrom opens the model at path and installs it. On failure the
// previously loaded model, if any, stays in place.
func (s *Service) LoadFrom(ctx context.Context, path string) error {
	capability, err := s.source.Open(ctx, path)
	if err != nil {
		slog.Error("Failed to load model", "path", path, "error", err)
		return fmt.Errorf("failed to load model from %s: %w", path, err)
	}
	if capability.Kind() == KindNone {
		return fmt.Errorf("model at %s has no capability", path)
	}

	s.current.Store(&loadedModel{capability: capability, path: path})
	slog.Info("Model loaded", "path", path, "capability", capability.Kind())
	return nil
}

// Install sets the model directly.
func (s *Service) Install(c Capability) {
	s.current.Store(&loadedModel{capability: c, path: s.opts.ModelPath})
}

// Loaded reports whether a model is installed.
func (s *Service) Loaded() bool {
	return s.current.Load() != nil
}

// Health reports the service state.
func (s *Service) Health() Health {
	h := Health{Status: "ok", ModelPath: s.opts.ModelPath}
	if m := s.current.Load(); m != nil {
		h.ModelLoaded = true
		h.ModelPath = m.path
		h.ModelKind = m.capability.Kind().String()
	}
	return h
}

// Normalize validates req and fills defaults.
func (s *Service) Normalize(req Request) (Input, error) {
	in := Input{
		Merchant:    strings.TrimSpace(req.Merchant),
		Description: strings.TrimSpace(req.Description),
		Timestamp:   strings.TrimSpace(req.Timestamp),
		TopK:        s.opts.DefaultTopK,
	}
	if in.Merchant == "" {
		return Input{}, common.InvalidInputf("merchant must not be empty")
	}
	if in.Description == "" {
		return Input{}, common.InvalidInputf("description must not be empty")
	}
	if req.Amount == nil {
		return Input{}, common.InvalidInputf("amount is required")
	}
	in.Amount = *req.Amount
	if in.Timestamp == "" {
		in.Timestamp = config.DefaultTimestamp
	}
	if req.TopK != nil {
		in.TopK = *req.TopK
	}
	if in.TopK < 1 || in.TopK > s.opts.MaxTopK {
		return Input{}, common.InvalidInputf("topk must be in 1..%d, got %d", s.opts.MaxTopK, in.TopK)
	}
	return in, nil
}

// Predict classifies one request.
func (s *Service) Predict(ctx context.Context, req Request) (*Response, error) {
	in, err := s.Normalize(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := s.current.Load()
	if m == nil {
		return nil, common.ErrModelNotLoaded
	}

	row := features.Derive(in.Merchant, in.Description, in.Amount, in.Timestamp)
	results, err := m.capability.Classify([]model.FeatureRecord{row}, in.TopK)
	if err != nil {
		return nil, err
	}
	return &Response{Input: in, PredictionResult: results[0]}, nil
}

// PredictBatch classifies txns in one pass. Labels on txns are ignored.
func (s *Service) PredictBatch(ctx context.Context, txns []model.RawTransaction, k int) ([]model.PredictionResult, error) {
	if k < 1 || k > s.opts.MaxTopK {
		return nil, common.InvalidInputf("topk must be in 1..%d, got %d", s.opts.MaxTopK, k)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := s.current.Load()
	if m == nil {
		return nil, common.ErrModelNotLoaded
	}
	if len(txns) == 0 {
		return nil, nil
	}
	return m.capability.Classify(features.DeriveBatch(txns), k)
}
