package detector

import (
	"math/rand/v2"

	"github.com/verifixia-ai/verifixia/internal/analysis"
	"github.com/verifixia-ai/verifixia/internal/model"
)

const (
	fallbackVersion = "biased-random-1.0"
	videoVersion    = "video-mock-1.0"
)

// classifyFallback is the last-resort tier, reached only when both the model
// and heuristic tiers failed. It produces a biased-random result and never
// fails. The raw score is folded onto the predicted side of 0.5 so the
// Fake <=> raw > 0.5 invariant holds even here.
func classifyFallback() model.DetectionResult {
	confidence := 70 + rand.Float64()*30

	prediction := model.PredictionReal
	raw := 1 - confidence/100
	if confidence > 80 {
		prediction = model.PredictionFake
		raw = confidence / 100
	}

	return model.DetectionResult{
		Prediction:    prediction,
		Confidence:    confidence,
		ConfidenceRaw: raw,
		ThreatLevel:   model.ThreatUnknown,
		TierUsed:      model.TierFallback,
		TierVersion:   fallbackVersion,
		Analysis:      analysis.Degraded(),
	}
}

// classifyVideo is the mock video tier. Real video analysis is out of scope;
// this keeps the end-to-end flow working with a stable high-confidence
// result. Never fails.
func classifyVideo() model.DetectionResult {
	score := 0.7 + rand.Float64()*0.3

	prediction := model.PredictionReal
	raw := 1 - score
	if score > 0.8 {
		prediction = model.PredictionFake
		raw = score
	}

	return model.DetectionResult{
		Prediction:    prediction,
		Confidence:    score * 100,
		ConfidenceRaw: raw,
		ThreatLevel:   threatFromScore(score),
		TierUsed:      model.TierVideo,
		TierVersion:   videoVersion,
		Analysis:      analysis.Video(),
	}
}
