// Package handler implements the HTTP API: media upload and classification,
// forensic log access and exports.
package handler

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/auth"
	"github.com/verifixia-ai/verifixia/internal/detector"
	"github.com/verifixia-ai/verifixia/internal/forensic"
	"github.com/verifixia-ai/verifixia/internal/model"
	"github.com/verifixia-ai/verifixia/internal/response"
)

var (
	imageExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	}
)

// DetectionHandler serves media uploads and classification.
type DetectionHandler struct {
	Pipeline  *detector.Pipeline
	Store     *forensic.Store
	UploadDir string
	Log       zerolog.Logger
}

type detectionResponse struct {
	Prediction     model.Prediction     `json:"prediction"`
	Confidence     float64              `json:"confidence"`
	ConfidenceRaw  float64              `json:"confidence_raw"`
	ThreatLevel    model.ThreatLevel    `json:"threat_level"`
	TierUsed       model.Tier           `json:"tier_used"`
	TierVersion    string               `json:"tier_version"`
	ProcessingTime model.ProcessingTime `json:"processing_time"`
	Analysis       model.Analysis       `json:"analysis"`
	Filename       string               `json:"filename"`
	FileURL        string               `json:"file_url"`
	IsVideo        bool                 `json:"is_video"`
	LogID          string               `json:"log_id,omitempty"`
}

// Upload classifies an uploaded image or video (POST /api/upload). The file
// arrives as the multipart field "image" regardless of media kind. The file
// is saved under a fresh UUID prefix, classified, and logged to the forensic
// store before the result is returned.
func (h *DetectionHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "no file uploaded", "multipart field 'image' is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	isVideo := videoExtensions[ext]
	if !isVideo && !imageExtensions[ext] {
		return response.BadRequest(c, "unsupported file type", "extension "+ext+" is not allowed")
	}

	storedName := uuid.NewString() + ext
	dstPath := filepath.Join(h.UploadDir, storedName)
	if err := saveUpload(file, dstPath); err != nil {
		h.Log.Error().Err(err).Str("filename", file.Filename).Msg("saving upload failed")
		return response.InternalError(c, "could not store upload", err.Error())
	}

	result := h.Pipeline.Classify(c.Request().Context(), dstPath, isVideo)

	entry := model.ForensicLogEntry{
		SourceType:       model.SourceUpload,
		Filename:         file.Filename,
		Prediction:       result.Prediction,
		Confidence:       result.Confidence,
		ThreatLevel:      result.ThreatLevel,
		TierUsed:         result.TierUsed,
		TierVersion:      result.TierVersion,
		ProcessingTimeMs: result.ProcessingTime.TotalMs,
	}
	if ident := auth.FromContext(c); ident != nil {
		entry.UserID = ident.UID
		entry.UserEmail = ident.Email
	}
	stored, err := h.Store.Append(c.Request().Context(), entry)
	if err != nil {
		// The classification already happened; losing the audit record is
		// worth a log line but not a failed response.
		h.Log.Error().Err(err).Str("filename", file.Filename).Msg("forensic append failed")
	}

	return response.OK(c, detectionResponse{
		Prediction:     result.Prediction,
		Confidence:     result.Confidence,
		ConfidenceRaw:  result.ConfidenceRaw,
		ThreatLevel:    result.ThreatLevel,
		TierUsed:       result.TierUsed,
		TierVersion:    result.TierVersion,
		ProcessingTime: result.ProcessingTime,
		Analysis:       result.Analysis,
		Filename:       file.Filename,
		FileURL:        "/uploads/" + storedName,
		IsVideo:        isVideo,
		LogID:          stored.ID,
	}, "")
}

// ModelInfo reports the classifier model status (GET /api/model-info).
func (h *DetectionHandler) ModelInfo(c echo.Context) error {
	return response.OK(c, h.Pipeline.ModelInfo(), "")
}

// Health reports service liveness, model status and the forensic backends
// (GET /api/health).
func (h *DetectionHandler) Health(c echo.Context) error {
	return response.OK(c, map[string]any{
		"status":         "ok",
		"model_loaded":   h.Pipeline.ModelLoaded(),
		"model":          h.Pipeline.ModelInfo(),
		"remote_logging": h.Store.RemoteEnabled(),
	}, "")
}

func saveUpload(file *multipart.FileHeader, dstPath string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
