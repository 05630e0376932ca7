package model

// Prediction is the binary classification outcome for a piece of media.
type Prediction string

const (
	PredictionReal Prediction = "Real"
	PredictionFake Prediction = "Fake"
)

// ThreatLevel is the coarse severity bucket derived from the fakeness score.
type ThreatLevel string

const (
	ThreatLow     ThreatLevel = "low"
	ThreatMedium  ThreatLevel = "medium"
	ThreatHigh    ThreatLevel = "high"
	ThreatUnknown ThreatLevel = "unknown"
)

// Tier identifies which prediction strategy produced a result. Downstream
// consumers use it to tell trustworthy model output from degraded output.
type Tier string

const (
	TierModel     Tier = "model"
	TierHeuristic Tier = "heuristic"
	TierFallback  Tier = "fallback"
	TierVideo     Tier = "video"
)

// ProcessingTime breaks a classification down into its timed phases.
// All values are milliseconds and never negative.
type ProcessingTime struct {
	PreprocessingMs float64 `json:"preprocessing_ms"`
	InferenceMs     float64 `json:"inference_ms"`
	TotalMs         float64 `json:"total_ms"`
}

// Analysis is the human-readable interpretation of a fakeness score.
type Analysis struct {
	Level          string `json:"level"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// DetectionResult is the outcome of classifying one image or video.
// Invariant: Prediction is Fake exactly when ConfidenceRaw > 0.5.
type DetectionResult struct {
	Prediction     Prediction     `json:"prediction"`
	Confidence     float64        `json:"confidence"`     // percent, [0,100]
	ConfidenceRaw  float64        `json:"confidence_raw"` // fakeness score, [0,1]
	ThreatLevel    ThreatLevel    `json:"threat_level"`
	TierUsed       Tier           `json:"tier_used"`
	TierVersion    string         `json:"tier_version"`
	ProcessingTime ProcessingTime `json:"processing_time"`
	Analysis       Analysis       `json:"analysis"`
}

// ModelInfo describes the loaded classifier model for health and diagnostics.
type ModelInfo struct {
	Name         string  `json:"model_name"`
	Version      string  `json:"version"`
	Architecture string  `json:"architecture"`
	InputSize    string  `json:"input_size"`
	Framework    string  `json:"framework"`
	Path         string  `json:"path,omitempty"`
	SizeMB       float64 `json:"size_mb,omitempty"`
	Exists       bool    `json:"exists"`
	Status       string  `json:"status"`
}
