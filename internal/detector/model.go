package detector

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/verifixia-ai/verifixia/internal/analysis"
	"github.com/verifixia-ai/verifixia/internal/model"
)

const (
	modelName         = "Verifixia AI Xception"
	modelVersion      = "xception-2.4.1"
	modelArchitecture = "Xception-based CNN"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initRuntime initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initRuntime(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ModelConfig locates the classifier model on disk.
type ModelConfig struct {
	Path           string // .onnx model file
	RuntimeLibPath string // optional onnxruntime shared library
	InputSize      int    // square input resolution, e.g. 299
}

// ModelTier runs the classifier model over an ONNX inference session.
// It is built once at startup and read-only afterwards.
type ModelTier struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	inputSize  int
	info       model.ModelInfo
	log        zerolog.Logger
}

// LoadModelTier loads the ONNX model and creates an inference session.
// The model is expected to take one NCHW float32 image tensor and emit a
// single sigmoid fakeness score.
func LoadModelTier(cfg ModelConfig, logger zerolog.Logger) (*ModelTier, error) {
	st, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("model: stat %s: %w", cfg.Path, err)
	}

	if err := initRuntime(cfg.RuntimeLibPath); err != nil {
		return nil, fmt.Errorf("model: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("model: read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("model: expected 1 input tensor, got %d", len(inputs))
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("model: model has no outputs")
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("model: create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		cfg.Path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("model: create session: %w", err)
	}

	size := cfg.InputSize
	if size <= 0 {
		size = 299
	}

	return &ModelTier{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		inputSize:  size,
		info: model.ModelInfo{
			Name:         modelName,
			Version:      modelVersion,
			Architecture: modelArchitecture,
			InputSize:    fmt.Sprintf("%dx%d", size, size),
			Framework:    "ONNX Runtime",
			Path:         cfg.Path,
			SizeMB:       float64(st.Size()) / (1024 * 1024),
			Exists:       true,
			Status:       "loaded",
		},
		log: logger.With().Str("component", "model-tier").Logger(),
	}, nil
}

// Info returns the loaded model description.
func (t *ModelTier) Info() model.ModelInfo { return t.info }

// Close releases the inference session.
func (t *ModelTier) Close() error { return t.session.Destroy() }

// Predict classifies the image at path with the model. Decode, preprocessing
// and inference failures are returned to the caller so the pipeline can fall
// back; a panic inside the native runtime is recovered into an error for the
// same reason.
func (t *ModelTier) Predict(ctx context.Context, path string) (res model.DetectionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model: inference panic: %v", r)
		}
	}()

	if err = ctx.Err(); err != nil {
		return res, err
	}

	preStart := time.Now()
	data, err := preprocessImage(path, t.inputSize)
	if err != nil {
		return res, err
	}
	preMs := float64(time.Since(preStart).Microseconds()) / 1000

	infStart := time.Now()
	raw, err := t.infer(data)
	if err != nil {
		return res, err
	}
	infMs := float64(time.Since(infStart).Microseconds()) / 1000

	score := clamp01(float64(raw))
	prediction := model.PredictionReal
	confidence := (1 - score) * 100
	if score > 0.5 {
		prediction = model.PredictionFake
		confidence = score * 100
	}

	return model.DetectionResult{
		Prediction:    prediction,
		Confidence:    confidence,
		ConfidenceRaw: score,
		ThreatLevel:   threatFromScore(score),
		TierUsed:      model.TierModel,
		TierVersion:   modelVersion,
		ProcessingTime: model.ProcessingTime{
			PreprocessingMs: preMs,
			InferenceMs:     infMs,
			TotalMs:         preMs + infMs,
		},
		Analysis: analysis.Interpret(score),
	}, nil
}

// infer runs one forward pass and returns the model's scalar output.
func (t *ModelTier) infer(data []float32) (float32, error) {
	shape := ort.NewShape(1, 3, int64(t.inputSize), int64(t.inputSize))
	input, err := ort.NewTensor(shape, data)
	if err != nil {
		return 0, fmt.Errorf("model: create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("model: create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := t.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, fmt.Errorf("model: inference failed: %w", err)
	}

	out := output.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("model: empty output tensor")
	}
	return out[0], nil
}
