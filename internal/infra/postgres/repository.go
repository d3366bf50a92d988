package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/framepulse/frametime-service/internal/domain/entity"
)

type AnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

func (r *AnalysisRepository) Create(ctx context.Context, a *entity.Analysis) error {
	query := `
		INSERT INTO analyses (
			id, user_id, video_key, report_key, annotated_key, status,
			file_size, fps, total_frames, duration, duplicate_frames,
			duplicate_ratio, avg_frametime, one_percent_low,
			smoothness_score, stutter_count, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.UserID, a.VideoKey, a.ReportKey, a.AnnotatedKey, string(a.Status),
		a.FileSize, a.FPS, a.TotalFrames, a.Duration, a.DuplicateFrames,
		a.DuplicateRatio, a.AvgFrametime, a.OnePercentLow,
		a.SmoothnessScore, a.StutterCount, a.Attempt, a.MaxAttempts,
		a.ErrorMessage, a.CreatedAt, a.UpdatedAt, a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) Update(ctx context.Context, a *entity.Analysis) error {
	query := `
		UPDATE analyses SET
			status=$2, report_key=$3, annotated_key=$4, fps=$5,
			total_frames=$6, duration=$7, duplicate_frames=$8,
			duplicate_ratio=$9, avg_frametime=$10, one_percent_low=$11,
			smoothness_score=$12, stutter_count=$13, attempt=$14,
			error_message=$15, updated_at=$16, completed_at=$17
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		a.ID, string(a.Status), a.ReportKey, a.AnnotatedKey, a.FPS,
		a.TotalFrames, a.Duration, a.DuplicateFrames,
		a.DuplicateRatio, a.AvgFrametime, a.OnePercentLow,
		a.SmoothnessScore, a.StutterCount, a.Attempt,
		a.ErrorMessage, a.UpdatedAt, a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Analysis, error) {
	query := `
		SELECT id, user_id, video_key, report_key, annotated_key, status,
			file_size, fps, total_frames, duration, duplicate_frames,
			duplicate_ratio, avg_frametime, one_percent_low,
			smoothness_score, stutter_count, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM analyses WHERE id=$1`

	a := &entity.Analysis{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.VideoKey, &a.ReportKey, &a.AnnotatedKey, &status,
		&a.FileSize, &a.FPS, &a.TotalFrames, &a.Duration, &a.DuplicateFrames,
		&a.DuplicateRatio, &a.AvgFrametime, &a.OnePercentLow,
		&a.SmoothnessScore, &a.StutterCount, &a.Attempt, &a.MaxAttempts,
		&a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt, &a.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find analysis by id: %w", err)
	}
	a.Status = entity.AnalysisStatus(status)
	return a, nil
}
