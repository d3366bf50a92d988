package entity

import "github.com/google/uuid"

// AnalysisRequestMessage is the inbound message from the analysis.request
// queue.
type AnalysisRequestMessage struct {
	AnalysisID uuid.UUID `json:"analysis_id"`
	UserID     string    `json:"user_id"`
	VideoKey   string    `json:"video_key"`
	FileSize   int64     `json:"file_size"`
	UserEmail  string    `json:"user_email"`
	Annotate   bool      `json:"annotate"`
}

// AnalysisStatusMessage is the outbound message published to the
// analysis.status queue.
type AnalysisStatusMessage struct {
	AnalysisID      uuid.UUID      `json:"analysis_id"`
	UserID          string         `json:"user_id"`
	Status          AnalysisStatus `json:"status"`
	VideoKey        string         `json:"video_key"`
	ReportKey       string         `json:"report_key,omitempty"`
	AnnotatedKey    string         `json:"annotated_key,omitempty"`
	SmoothnessScore float64        `json:"smoothness_score,omitempty"`
	StutterCount    int            `json:"stutter_count,omitempty"`
	DuplicateRatio  float64        `json:"duplicate_ratio,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	Attempt         int            `json:"attempt"`
	MaxAttempts     int            `json:"max_attempts"`
}
