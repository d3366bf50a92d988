package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/framepulse/frametime-service/internal/analysis"
)

type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "PENDING"
	AnalysisStatusProcessing AnalysisStatus = "PROCESSING"
	AnalysisStatusCompleted  AnalysisStatus = "COMPLETED"
	AnalysisStatusFailed     AnalysisStatus = "FAILED"
)

// Analysis is one smoothness analysis of one uploaded recording. Summary
// metrics are denormalized onto the row; the full report lives in object
// storage under ReportKey.
type Analysis struct {
	ID           uuid.UUID
	UserID       string
	VideoKey     string
	ReportKey    string
	AnnotatedKey string
	Status       AnalysisStatus
	FileSize     int64

	FPS             float64
	TotalFrames     int
	Duration        float64
	DuplicateFrames int
	DuplicateRatio  float64
	AvgFrametime    float64
	OnePercentLow   float64
	SmoothnessScore float64
	StutterCount    int

	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewAnalysis(userID, videoKey string, fileSize int64, maxAttempts int) *Analysis {
	now := time.Now().UTC()
	return &Analysis{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FileSize:    fileSize,
		Status:      AnalysisStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (a *Analysis) MarkProcessing() {
	a.Status = AnalysisStatusProcessing
	a.Attempt++
	a.UpdatedAt = time.Now().UTC()
}

func (a *Analysis) MarkCompleted(reportKey, annotatedKey string, stats analysis.FrameTimeStats, stutterCount int) {
	now := time.Now().UTC()
	a.Status = AnalysisStatusCompleted
	a.ReportKey = reportKey
	a.AnnotatedKey = annotatedKey
	a.FPS = stats.FPS
	a.TotalFrames = stats.TotalFrames
	a.Duration = stats.Duration
	a.DuplicateFrames = stats.DuplicateFrames
	a.DuplicateRatio = stats.DuplicateRatio
	a.AvgFrametime = stats.AvgFrametime
	a.OnePercentLow = stats.OnePercentLow
	a.SmoothnessScore = stats.StutterScore
	a.StutterCount = stutterCount
	a.UpdatedAt = now
	a.CompletedAt = &now
}

func (a *Analysis) MarkFailed(errMsg string) {
	a.Status = AnalysisStatusFailed
	a.ErrorMessage = errMsg
	a.UpdatedAt = time.Now().UTC()
}

func (a *Analysis) CanRetry() bool {
	return a.Attempt < a.MaxAttempts
}
