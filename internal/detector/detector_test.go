package detector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/model"
)

func testPipeline() *Pipeline {
	return New(nil, zerolog.Nop())
}

func checkInvariant(t *testing.T, res model.DetectionResult) {
	t.Helper()
	fake := res.Prediction == model.PredictionFake
	if fake != (res.ConfidenceRaw > 0.5) {
		t.Fatalf("invariant violated: prediction=%q raw=%v tier=%q",
			res.Prediction, res.ConfidenceRaw, res.TierUsed)
	}
}

func checkShape(t *testing.T, res model.DetectionResult) {
	t.Helper()
	if res.Prediction != model.PredictionReal && res.Prediction != model.PredictionFake {
		t.Fatalf("prediction = %q", res.Prediction)
	}
	if res.Confidence < 0 || res.Confidence > 100 {
		t.Fatalf("confidence = %v, want [0,100]", res.Confidence)
	}
	switch res.ThreatLevel {
	case model.ThreatLow, model.ThreatMedium, model.ThreatHigh, model.ThreatUnknown:
	default:
		t.Fatalf("threat = %q", res.ThreatLevel)
	}
	if res.TierUsed == "" {
		t.Fatal("tier used is empty")
	}
}

func TestClassify_HeuristicWhenNoModel(t *testing.T) {
	p := testPipeline()
	path := writePNG(t, uniformGray(128, 16, 16))

	res := p.Classify(context.Background(), path, false)
	if res.TierUsed != model.TierHeuristic {
		t.Fatalf("tier = %q, want heuristic", res.TierUsed)
	}
	checkShape(t, res)
	checkInvariant(t, res)
	if res.Analysis.Level == "" {
		t.Fatal("analysis missing")
	}
}

func TestClassify_FallsBackToLastResort(t *testing.T) {
	p := testPipeline()
	// No model and no readable image: both real tiers fail.
	path := filepath.Join(t.TempDir(), "missing.png")

	res := p.Classify(context.Background(), path, false)
	if res.TierUsed != model.TierFallback {
		t.Fatalf("tier = %q, want fallback", res.TierUsed)
	}
	if res.ThreatLevel != model.ThreatUnknown {
		t.Fatalf("threat = %q, want unknown", res.ThreatLevel)
	}
	if res.Confidence < 70 || res.Confidence > 100 {
		t.Fatalf("confidence = %v, want [70,100]", res.Confidence)
	}
	if res.Analysis.Level != "Degraded" {
		t.Fatalf("analysis level = %q, want Degraded", res.Analysis.Level)
	}
	checkShape(t, res)
	checkInvariant(t, res)
}

func TestClassify_LastResortNotUsedForValidImage(t *testing.T) {
	p := testPipeline()
	path := writePNG(t, uniformGray(64, 16, 16))

	for i := 0; i < 20; i++ {
		res := p.Classify(context.Background(), path, false)
		if res.TierUsed == model.TierFallback {
			t.Fatal("fallback tier ran although the heuristic tier can serve")
		}
	}
}

func TestClassify_Video(t *testing.T) {
	p := testPipeline()
	for i := 0; i < 100; i++ {
		res := p.Classify(context.Background(), "ignored.mp4", true)
		if res.TierUsed != model.TierVideo {
			t.Fatalf("tier = %q, want video", res.TierUsed)
		}
		if res.Confidence < 70 || res.Confidence > 100 {
			t.Fatalf("confidence = %v, want [70,100]", res.Confidence)
		}
		checkShape(t, res)
		checkInvariant(t, res)
	}
}

func TestClassify_FallbackInvariantHolds(t *testing.T) {
	for i := 0; i < 100; i++ {
		res := classifyFallback()
		checkShape(t, res)
		checkInvariant(t, res)
	}
}

func TestPipeline_ModelInfoWithoutModel(t *testing.T) {
	p := testPipeline()
	if p.ModelLoaded() {
		t.Fatal("ModelLoaded = true without a model")
	}
	info := p.ModelInfo()
	if info.Status != "not_loaded" {
		t.Fatalf("status = %q, want not_loaded", info.Status)
	}
}
