package detector

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"time"

	"github.com/verifixia-ai/verifixia/internal/analysis"
	"github.com/verifixia-ai/verifixia/internal/model"
)

const heuristicVersion = "grayscale-stats-1.0"

// heuristicTier scores an image from grayscale pixel statistics: standard
// deviation as a contrast/noise proxy and distance of the mean from mid-gray
// as a brightness proxy. It needs no model and fails only when the image
// cannot be read.
type heuristicTier struct{}

// Predict classifies the image at path from its grayscale statistics.
func (heuristicTier) Predict(path string) (model.DetectionResult, error) {
	start := time.Now()

	img, err := decodeImage(path)
	if err != nil {
		return model.DetectionResult{}, err
	}

	mean, stddev := grayStats(img)

	normContrast := clamp01(stddev / 64)
	normBrightness := clamp01(math.Abs(mean-128) / 128)

	// Small symmetric jitter so repeated uploads of the same file are not
	// byte-identical in the logs.
	jitter := (rand.Float64() - 0.5) * 0.1
	fakeScore := clamp01(0.6*normContrast + 0.4*normBrightness + jitter)

	prediction := model.PredictionReal
	confidence := (1 - fakeScore) * 100
	threat := model.ThreatLow
	if fakeScore > 0.5 {
		prediction = model.PredictionFake
		confidence = fakeScore * 100
		threat = model.ThreatMedium
	}

	totalMs := float64(time.Since(start).Microseconds()) / 1000
	return model.DetectionResult{
		Prediction:    prediction,
		Confidence:    confidence,
		ConfidenceRaw: fakeScore,
		ThreatLevel:   threat,
		TierUsed:      model.TierHeuristic,
		TierVersion:   heuristicVersion,
		ProcessingTime: model.ProcessingTime{
			PreprocessingMs: totalMs,
			TotalMs:         totalMs,
		},
		Analysis: analysis.Interpret(fakeScore),
	}, nil
}

// grayStats returns the mean and population standard deviation of the
// image's 8-bit grayscale values (ITU-R 601 luma, same as PIL's "L" mode).
func grayStats(img image.Image) (mean, stddev float64) {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			v := float64(g.Y)
			sum += v
			sumSq += v * v
		}
	}

	mean = sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}
