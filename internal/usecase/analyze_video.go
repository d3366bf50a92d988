package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/framepulse/frametime-service/internal/analysis"
	"github.com/framepulse/frametime-service/internal/domain/entity"
	"github.com/framepulse/frametime-service/internal/domain/port"
	"github.com/framepulse/frametime-service/internal/infra/metrics"
	"github.com/framepulse/frametime-service/internal/report"
)

// SourceOpener opens a frame source for a local video file.
type SourceOpener func(ctx context.Context, path string) (analysis.FrameSource, error)

type AnalyzeVideoUseCase struct {
	repo       port.AnalysisRepository
	store      port.MediaStore
	openSource SourceOpener
	annotator  port.Annotator
	publisher  port.StatusPublisher
	dlq        port.DLQPublisher
	notifier   port.FailureNotifier
	logger     *zap.Logger
	tempDir    string
	maxRetry   int
	opts       analysis.Options
}

type AnalyzeVideoConfig struct {
	TempDir    string
	MaxRetries int
	Options    analysis.Options
}

func NewAnalyzeVideoUseCase(
	repo port.AnalysisRepository,
	store port.MediaStore,
	openSource SourceOpener,
	annotator port.Annotator,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg AnalyzeVideoConfig,
) *AnalyzeVideoUseCase {
	return &AnalyzeVideoUseCase{
		repo:       repo,
		store:      store,
		openSource: openSource,
		annotator:  annotator,
		publisher:  publisher,
		dlq:        dlq,
		notifier:   notifier,
		logger:     logger,
		tempDir:    cfg.TempDir,
		maxRetry:   cfg.MaxRetries,
		opts:       cfg.Options,
	}
}

func (uc *AnalyzeVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.AnalysisRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("analysis.id", msg.AnalysisID.String()),
		attribute.String("analysis.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("analysis_id", msg.AnalysisID.String()), zap.String("video_key", msg.VideoKey))

	rec, err := uc.repo.FindByID(ctx, msg.AnalysisID)
	if err != nil {
		rec = entity.NewAnalysis(msg.UserID, msg.VideoKey, msg.FileSize, uc.maxRetry)
		rec.ID = msg.AnalysisID
		if err := uc.repo.Create(ctx, rec); err != nil {
			log.Error("failed to create analysis record", zap.Error(err))
			return fmt.Errorf("create analysis: %w", err)
		}
	}

	if !rec.CanRetry() {
		log.Warn("analysis exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, rec, msg, rawMsg, "max retries exceeded")
		return nil
	}

	rec.MarkProcessing()
	if err := uc.repo.Update(ctx, rec); err != nil {
		log.Error("failed to update analysis to PROCESSING", zap.Error(err))
		return fmt.Errorf("update analysis: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.runPipeline(ctx, rec, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.AnalysesTotal.WithLabelValues("completed").Inc()
	metrics.AnalysisDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *AnalyzeVideoUseCase) runPipeline(
	ctx context.Context,
	rec *entity.Analysis,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, rec.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Fetch the recording from the media store.
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_recording")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.store.DownloadRecording(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download recording", zap.Error(err))
		return uc.handleRetryableFailure(ctx, rec, msg, rawMsg, "download_recording: "+err.Error(), log)
	}
	spanDl.End()
	metrics.AnalysisDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Run the frame-time analysis.
	anStart := time.Now()
	ctx3, spanAn := tracer.Start(ctx, "analyze_frametimes")
	res, err := uc.analyze(ctx3, videoPath)
	if err != nil {
		spanAn.End()
		log.Error("analysis failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, rec, msg, rawMsg, "analyze_frametimes: "+err.Error(), log)
	}
	spanAn.End()
	metrics.AnalysisDuration.WithLabelValues("analyze").Observe(time.Since(anStart).Seconds())
	metrics.FramesAnalyzedTotal.Add(float64(res.Stats.TotalFrames))
	metrics.StutterEventsTotal.Add(float64(len(res.Events)))

	// Upload the flat report.
	repStart := time.Now()
	ctx4, spanRep := tracer.Start(ctx, "upload_report")
	reportKey := fmt.Sprintf("%s/report_%s.json", msg.UserID, rec.ID.String())
	data, err := json.Marshal(report.Build(msg.VideoKey, res))
	if err != nil {
		spanRep.End()
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := uc.store.UploadReport(ctx4, reportKey, bytes.NewReader(data), int64(len(data))); err != nil {
		spanRep.End()
		log.Error("report upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, rec, msg, rawMsg, "upload_report: "+err.Error(), log)
	}
	spanRep.End()
	metrics.AnalysisDuration.WithLabelValues("report").Observe(time.Since(repStart).Seconds())

	// Optionally render and upload the annotated copy.
	var annotatedKey string
	if msg.Annotate {
		annStart := time.Now()
		ctx5, spanAnn := tracer.Start(ctx, "annotate_video")
		annotatedPath := filepath.Join(workDir, "annotated.mp4")
		produced, err := uc.annotator.Annotate(ctx5, videoPath, annotatedPath, res)
		if err != nil {
			spanAnn.End()
			log.Error("annotation failed", zap.Error(err))
			return uc.handleRetryableFailure(ctx, rec, msg, rawMsg, "annotate_video: "+err.Error(), log)
		}
		if produced {
			annotatedKey = fmt.Sprintf("%s/annotated_%s.mp4", msg.UserID, rec.ID.String())
			if err := uc.store.UploadAnnotated(ctx5, annotatedKey, annotatedPath); err != nil {
				spanAnn.End()
				log.Error("annotated upload failed", zap.Error(err))
				return uc.handleRetryableFailure(ctx, rec, msg, rawMsg, "upload_annotated: "+err.Error(), log)
			}
		}
		spanAnn.End()
		metrics.AnalysisDuration.WithLabelValues("annotate").Observe(time.Since(annStart).Seconds())
	}

	rec.MarkCompleted(reportKey, annotatedKey, res.Stats, len(res.Events))
	if err := uc.repo.Update(ctx, rec); err != nil {
		log.Error("failed to update analysis to COMPLETED", zap.Error(err))
		return fmt.Errorf("update analysis completed: %w", err)
	}

	uc.publishStatus(ctx, rec, log)

	log.Info("analysis completed",
		zap.Float64("smoothness_score", res.Stats.StutterScore),
		zap.Int("stutter_events", len(res.Events)),
		zap.Int("duplicate_frames", res.Stats.DuplicateFrames),
		zap.String("report_key", reportKey),
	)

	return nil
}

func (uc *AnalyzeVideoUseCase) analyze(ctx context.Context, videoPath string) (*analysis.Result, error) {
	src, err := uc.openSource(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return analysis.Analyze(ctx, src, uc.opts)
}

func (uc *AnalyzeVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	rec *entity.Analysis,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	rec.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, rec)

	if !rec.CanRetry() {
		return uc.handlePermanentFailure(ctx, rec, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(rec.Attempt)).Inc()
	uc.publishStatus(ctx, rec, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", rec.Attempt, rec.MaxAttempts, errMsg)
}

func (uc *AnalyzeVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	rec *entity.Analysis,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	rec.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, rec)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, rec, uc.logger)

	metrics.AnalysesTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, rec.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *AnalyzeVideoUseCase) publishStatus(ctx context.Context, rec *entity.Analysis, log *zap.Logger) {
	statusMsg := entity.AnalysisStatusMessage{
		AnalysisID:      rec.ID,
		UserID:          rec.UserID,
		Status:          rec.Status,
		VideoKey:        rec.VideoKey,
		ReportKey:       rec.ReportKey,
		AnnotatedKey:    rec.AnnotatedKey,
		SmoothnessScore: rec.SmoothnessScore,
		StutterCount:    rec.StutterCount,
		DuplicateRatio:  rec.DuplicateRatio,
		ErrorMessage:    rec.ErrorMessage,
		Attempt:         rec.Attempt,
		MaxAttempts:     rec.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
