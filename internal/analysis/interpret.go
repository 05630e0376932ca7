// Package analysis maps raw fakeness scores to human-readable severity tiers.
package analysis

import "github.com/verifixia-ai/verifixia/internal/model"

// Interpret maps a raw fakeness score in [0,1] to a severity tier.
// Breakpoints are evaluated in descending order, first match wins.
// Pure function: no side effects, never fails.
func Interpret(confidenceRaw float64) model.Analysis {
	switch {
	case confidenceRaw > 0.9:
		return model.Analysis{
			Level:          "Very High",
			Description:    "Strong indicators of deepfake manipulation detected",
			Recommendation: "Content should be flagged and reviewed",
		}
	case confidenceRaw > 0.7:
		return model.Analysis{
			Level:          "High",
			Description:    "Multiple deepfake artifacts identified",
			Recommendation: "Content likely manipulated, further analysis recommended",
		}
	case confidenceRaw > 0.5:
		return model.Analysis{
			Level:          "Moderate",
			Description:    "Some suspicious patterns detected",
			Recommendation: "Content may be manipulated, manual review suggested",
		}
	case confidenceRaw > 0.3:
		return model.Analysis{
			Level:          "Low",
			Description:    "Minimal deepfake indicators found",
			Recommendation: "Content appears mostly authentic",
		}
	default:
		return model.Analysis{
			Level:          "Very Low",
			Description:    "No significant manipulation detected",
			Recommendation: "Content appears authentic",
		}
	}
}

// Degraded is the fixed analysis attached to last-resort results, whose raw
// scores carry no semantic meaning.
func Degraded() model.Analysis {
	return model.Analysis{
		Level:          "Degraded",
		Description:    "Analysis ran without model or image statistics",
		Recommendation: "Re-submit the media or contact support",
	}
}

// Video is the fixed analysis attached to mock video results.
func Video() model.Analysis {
	return model.Analysis{
		Level:          "Video",
		Description:    "Video analysis requires specialized processing",
		Recommendation: "Full video analysis coming soon",
	}
}
