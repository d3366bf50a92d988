package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/framepulse/frametime-service/internal/domain/entity"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ServiceInfoResponse struct {
	Service   string            `json:"service"`
	Endpoints map[string]string `json:"endpoints"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type SubmitResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
}

type AnalysisResponse struct {
	AnalysisID      string  `json:"analysis_id"`
	Status          string  `json:"status"`
	VideoKey        string  `json:"video_key"`
	ReportKey       string  `json:"report_key,omitempty"`
	AnnotatedKey    string  `json:"annotated_key,omitempty"`
	FPS             float64 `json:"fps,omitempty"`
	TotalFrames     int     `json:"total_frames,omitempty"`
	Duration        float64 `json:"duration,omitempty"`
	DuplicateRatio  float64 `json:"duplicate_ratio,omitempty"`
	SmoothnessScore float64 `json:"smoothness_score,omitempty"`
	StutterCount    int     `json:"stutter_count,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	Attempt         int     `json:"attempt"`
	CreatedAt       string  `json:"created_at"`
	CompletedAt     string  `json:"completed_at,omitempty"`
}

func analysisToResponse(a *entity.Analysis) AnalysisResponse {
	resp := AnalysisResponse{
		AnalysisID:      a.ID.String(),
		Status:          string(a.Status),
		VideoKey:        a.VideoKey,
		ReportKey:       a.ReportKey,
		AnnotatedKey:    a.AnnotatedKey,
		FPS:             a.FPS,
		TotalFrames:     a.TotalFrames,
		Duration:        a.Duration,
		DuplicateRatio:  a.DuplicateRatio,
		SmoothnessScore: a.SmoothnessScore,
		StutterCount:    a.StutterCount,
		ErrorMessage:    a.ErrorMessage,
		Attempt:         a.Attempt,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.CompletedAt != nil {
		resp.CompletedAt = a.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg, code string) {
	WriteJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
