// Package detector implements the tiered media classification pipeline.
//
// Three strategies can produce a result for an image: the ONNX model tier,
// the grayscale-statistics heuristic tier, and a biased-random last resort.
// Video goes through a separate mock tier. The pipeline tries tiers in order
// and records which one actually ran, so a degraded result is never silently
// passed off as model output.
package detector

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/model"
)

// Pipeline orchestrates the prediction tiers. Construct it once at startup;
// it is read-only afterwards and safe for concurrent use.
type Pipeline struct {
	modelTier *ModelTier // nil when no classifier model was loaded
	heuristic heuristicTier
	log       zerolog.Logger
}

// New builds a Pipeline. modelTier may be nil, in which case every image
// classification starts at the heuristic tier.
func New(modelTier *ModelTier, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		modelTier: modelTier,
		log:       logger.With().Str("component", "detector").Logger(),
	}
}

// Classify produces a DetectionResult for the media at mediaPath. It never
// fails: each tier failure falls through to the next, and the last-resort
// tier has no failure path. The chain is
//
//	model -> heuristic -> fallback
//
// with video dispatched to its own tier before any of them.
func (p *Pipeline) Classify(ctx context.Context, mediaPath string, isVideo bool) model.DetectionResult {
	if isVideo {
		return classifyVideo()
	}

	if p.modelTier != nil {
		res, err := p.modelTier.Predict(ctx, mediaPath)
		if err == nil {
			return res
		}
		p.log.Warn().Err(err).Str("path", mediaPath).
			Msg("model tier failed, falling back to heuristic")
	}

	res, err := p.heuristic.Predict(mediaPath)
	if err == nil {
		return res
	}
	p.log.Warn().Err(err).Str("path", mediaPath).
		Msg("heuristic tier failed, falling back to last resort")

	return classifyFallback()
}

// ModelLoaded reports whether the model tier is available.
func (p *Pipeline) ModelLoaded() bool { return p.modelTier != nil }

// ModelInfo describes the loaded model, or a not-loaded placeholder.
func (p *Pipeline) ModelInfo() model.ModelInfo {
	if p.modelTier == nil {
		return model.ModelInfo{
			Name:         modelName,
			Version:      modelVersion,
			Architecture: modelArchitecture,
			Framework:    "ONNX Runtime",
			Exists:       false,
			Status:       "not_loaded",
		}
	}
	return p.modelTier.Info()
}

// Close releases model resources, if any.
func (p *Pipeline) Close() error {
	if p.modelTier == nil {
		return nil
	}
	return p.modelTier.Close()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func threatFromScore(score float64) model.ThreatLevel {
	switch {
	case score > 0.7:
		return model.ThreatHigh
	case score > 0.4:
		return model.ThreatMedium
	default:
		return model.ThreatLow
	}
}
