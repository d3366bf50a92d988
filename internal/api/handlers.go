package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/framepulse/frametime-service/internal/analysis"
	"github.com/framepulse/frametime-service/internal/domain/entity"
	"github.com/framepulse/frametime-service/internal/report"
)

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, ServiceInfoResponse{
		Service: "framepulse-frametime-service",
		Endpoints: map[string]string{
			"POST /analyze":       "upload a video, get the frame-time report back",
			"POST /analyze-url":   "analyze a video fetched from ?url=",
			"POST /analyses":      "submit a video for asynchronous analysis",
			"GET /analyses/{id}":  "fetch the state of a submitted analysis",
			"GET /healthz":        "liveness probe",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleAnalyze runs the analysis inline and returns the full report.
// The upload is spooled to a temp file because ffprobe needs a seekable
// path, not a stream.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing multipart field 'file'", "MISSING_FILE")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file extension %q", ext), "UNSUPPORTED_FORMAT")
		return
	}

	tmpPath, err := s.spoolToTemp(file, ext)
	if err != nil {
		s.logger.Error("failed to spool upload", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to store upload", "INTERNAL_ERROR")
		return
	}
	defer os.Remove(tmpPath)

	s.runAnalysis(w, r, tmpPath, header.Filename)
}

// handleAnalyzeURL fetches the video named by the url query parameter and
// analyzes it inline.
func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		WriteError(w, http.StatusBadRequest, "missing query parameter 'url'", "MISSING_URL")
		return
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		WriteError(w, http.StatusBadRequest, "url must be http or https", "INVALID_URL")
		return
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	if ext == "" {
		ext = ".mp4"
	}
	if !allowedExtensions[ext] {
		WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file extension %q", ext), "UNSUPPORTED_FORMAT")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid url", "INVALID_URL")
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "failed to fetch video: "+err.Error(), "FETCH_FAILED")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		WriteError(w, http.StatusBadGateway,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode), "FETCH_FAILED")
		return
	}

	tmpPath, err := s.spoolToTemp(io.LimitReader(resp.Body, s.maxUpload), ext)
	if err != nil {
		s.logger.Error("failed to spool remote video", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to store download", "INTERNAL_ERROR")
		return
	}
	defer os.Remove(tmpPath)

	s.runAnalysis(w, r, tmpPath, rawURL)
}

// handleSubmit stores the recording and enqueues the analysis for the
// worker pool. The response carries only the id; progress is polled via
// GET /analyses/{id}.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing multipart field 'file'", "MISSING_FILE")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file extension %q", ext), "UNSUPPORTED_FORMAT")
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		userID = "anonymous"
	}
	userEmail := r.FormValue("user_email")
	annotate := r.FormValue("annotate") == "true"

	id := uuid.New()
	videoKey := fmt.Sprintf("%s/%s%s", userID, id.String(), ext)

	if err := s.store.PutRecording(r.Context(), videoKey, file, header.Size,
		header.Header.Get("Content-Type")); err != nil {
		s.logger.Error("failed to store recording", zap.Error(err), zap.String("video_key", videoKey))
		WriteError(w, http.StatusInternalServerError, "failed to store recording", "STORAGE_ERROR")
		return
	}

	rec := entity.NewAnalysis(userID, videoKey, header.Size, s.maxRetries)
	rec.ID = id
	if err := s.repo.Create(r.Context(), rec); err != nil {
		s.logger.Error("failed to create analysis record", zap.Error(err), zap.String("analysis_id", id.String()))
		WriteError(w, http.StatusInternalServerError, "failed to create analysis", "INTERNAL_ERROR")
		return
	}

	msg, _ := json.Marshal(entity.AnalysisRequestMessage{
		AnalysisID: id,
		UserID:     userID,
		VideoKey:   videoKey,
		FileSize:   header.Size,
		UserEmail:  userEmail,
		Annotate:   annotate,
	})
	if err := s.requests.PublishRequest(r.Context(), msg); err != nil {
		s.logger.Error("failed to publish analysis request", zap.Error(err), zap.String("analysis_id", id.String()))
		WriteError(w, http.StatusInternalServerError, "failed to enqueue analysis", "QUEUE_ERROR")
		return
	}

	WriteJSON(w, http.StatusAccepted, SubmitResponse{
		AnalysisID: id.String(),
		Status:     string(entity.AnalysisStatusPending),
	})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid analysis id", "INVALID_ID")
		return
	}

	rec, err := s.repo.FindByID(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "analysis not found", "NOT_FOUND")
		return
	}

	WriteJSON(w, http.StatusOK, analysisToResponse(rec))
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, videoPath, source string) {
	res, err := s.analyze(r.Context(), videoPath)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrSourceUnavailable),
			errors.Is(err, analysis.ErrCannotReadFrames),
			errors.Is(err, analysis.ErrNoFrameData):
			WriteError(w, http.StatusBadRequest, err.Error(), "UNREADABLE_VIDEO")
		default:
			s.logger.Error("analysis failed", zap.Error(err), zap.String("source", source))
			WriteError(w, http.StatusInternalServerError, "analysis failed", "ANALYSIS_ERROR")
		}
		return
	}

	WriteJSON(w, http.StatusOK, report.Build(source, res))
}

func (s *Server) spoolToTemp(r io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.tempDir, "upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
