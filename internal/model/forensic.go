package model

// SourceType says how a forensic entry was produced.
type SourceType string

const (
	SourceUpload SourceType = "upload"
	SourceLive   SourceType = "live"
)

// ForensicLogEntry is one immutable audit record of a classification or a
// live-monitoring event. Entries are persisted as newline-delimited JSON in
// the local durable log and as rows in the remote indexed store; any new
// field must be additive and optional so the file format stays stable.
//
// Timestamp is an RFC3339 UTC instant kept as a string: legacy files may
// contain values the current code did not write, and a scan must not fail
// on them.
type ForensicLogEntry struct {
	ID               string      `json:"id,omitempty"`
	Timestamp        string      `json:"timestamp,omitempty"`
	SourceType       SourceType  `json:"source_type,omitempty"`
	Filename         string      `json:"filename,omitempty"`
	EventName        string      `json:"event_name,omitempty"`
	Prediction       Prediction  `json:"prediction,omitempty"`
	Confidence       float64     `json:"confidence"`
	ThreatLevel      ThreatLevel `json:"threat_level,omitempty"`
	TierUsed         Tier        `json:"tier_used,omitempty"`
	TierVersion      string      `json:"tier_version,omitempty"`
	ProcessingTimeMs float64     `json:"processing_time_ms"`
	SessionID        string      `json:"session_id,omitempty"`

	// Set only when the request carried a verified identity.
	UserID    string `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}
