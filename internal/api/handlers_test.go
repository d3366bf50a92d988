package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/framepulse/frametime-service/internal/analysis"
	"github.com/framepulse/frametime-service/internal/domain/entity"
)

type fakeStore struct {
	putKeys []string
	putErr  error
}

func (f *fakeStore) PutRecording(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return nil
}

func (f *fakeStore) DownloadRecording(ctx context.Context, key, destPath string) error { return nil }
func (f *fakeStore) RemoveRecording(ctx context.Context, key string) error            { return nil }
func (f *fakeStore) UploadReport(ctx context.Context, key string, r io.Reader, size int64) error {
	return nil
}
func (f *fakeStore) UploadAnnotated(ctx context.Context, key, srcPath string) error { return nil }

type fakeRepo struct {
	records map[uuid.UUID]*entity.Analysis
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]*entity.Analysis)}
}

func (f *fakeRepo) Create(ctx context.Context, a *entity.Analysis) error {
	f.records[a.ID] = a
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, a *entity.Analysis) error {
	f.records[a.ID] = a
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Analysis, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

type fakePublisher struct {
	published [][]byte
	err       error
}

func (f *fakePublisher) PublishRequest(ctx context.Context, msg []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func testResult() *analysis.Result {
	return &analysis.Result{
		Stats: analysis.FrameTimeStats{
			FPS:            60,
			TotalFrames:    600,
			Duration:       10,
			AvgFrametime:   16.6667,
			OnePercentLow:  33.3333,
			MaxFrametime:   50,
			AvgTo1PctRatio: 0.5,
			StutterScore:   42.5,
		},
		Frametimes: []float64{16.67, 16.67, 33.33},
	}
}

func newTestServer(t *testing.T, an Analyzer, store *fakeStore, repo *fakeRepo, pub *fakePublisher) *Server {
	t.Helper()
	return NewServer(ServerConfig{
		Analyzer:   an,
		Store:      store,
		Repo:       repo,
		Requests:   pub,
		Logger:     zap.NewNop(),
		TempDir:    t.TempDir(),
		MaxUpload:  32 << 20,
		MaxRetries: 3,
	})
}

func multipartBody(t *testing.T, filename string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("not really a video"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestAnalyzeReturnsReport(t *testing.T) {
	an := func(ctx context.Context, path string) (*analysis.Result, error) {
		return testResult(), nil
	}
	srv := newTestServer(t, an, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	body, contentType := multipartBody(t, "clip.mp4", nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "clip.mp4", got["source"])
	assert.Equal(t, 42.5, got["smoothness_score"])
}

func TestAnalyzeRejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t, nil, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	body, contentType := multipartBody(t, "document.pdf", nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "UNSUPPORTED_FORMAT", got.Code)
}

func TestAnalyzeRejectsMissingFile(t *testing.T) {
	srv := newTestServer(t, nil, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalyzeMapsUnreadableVideoTo400(t *testing.T) {
	an := func(ctx context.Context, path string) (*analysis.Result, error) {
		return nil, fmt.Errorf("probe clip: %w", analysis.ErrSourceUnavailable)
	}
	srv := newTestServer(t, an, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	body, contentType := multipartBody(t, "clip.mkv", nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "UNREADABLE_VIDEO", got.Code)
}

func TestAnalyzeMapsInternalErrorTo500(t *testing.T) {
	an := func(ctx context.Context, path string) (*analysis.Result, error) {
		return nil, errors.New("ffmpeg exploded")
	}
	srv := newTestServer(t, an, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	body, contentType := multipartBody(t, "clip.mp4", nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAnalyzeURLRequiresParameter(t *testing.T) {
	srv := newTestServer(t, nil, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodPost, "/analyze-url", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "MISSING_URL", got.Code)
}

func TestAnalyzeURLFetchesAndAnalyzes(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake video bytes"))
	}))
	defer upstream.Close()

	var gotPath string
	an := func(ctx context.Context, path string) (*analysis.Result, error) {
		gotPath = path
		return testResult(), nil
	}
	srv := newTestServer(t, an, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	target := "/analyze-url?url=" + upstream.URL + "/clips/run.mp4"
	req := httptest.NewRequest(http.MethodPost, target, nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, gotPath)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Contains(t, got["source"], "/clips/run.mp4")
}

func TestSubmitEnqueuesAnalysis(t *testing.T) {
	store := &fakeStore{}
	repo := newFakeRepo()
	pub := &fakePublisher{}
	srv := newTestServer(t, nil, store, repo, pub)

	body, contentType := multipartBody(t, "match.webm", map[string]string{
		"user_id":    "user-7",
		"user_email": "user7@example.com",
		"annotate":   "true",
	})
	req := httptest.NewRequest(http.MethodPost, "/analyses", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "PENDING", resp.Status)

	id, err := uuid.Parse(resp.AnalysisID)
	require.NoError(t, err)

	rec, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "user-7", rec.UserID)
	assert.Equal(t, entity.AnalysisStatusPending, rec.Status)

	require.Len(t, store.putKeys, 1)
	assert.Equal(t, rec.VideoKey, store.putKeys[0])

	require.Len(t, pub.published, 1)
	var msg entity.AnalysisRequestMessage
	require.NoError(t, json.Unmarshal(pub.published[0], &msg))
	assert.Equal(t, id, msg.AnalysisID)
	assert.Equal(t, "user7@example.com", msg.UserEmail)
	assert.True(t, msg.Annotate)
}

func TestSubmitStorageFailure(t *testing.T) {
	store := &fakeStore{putErr: errors.New("minio down")}
	srv := newTestServer(t, nil, store, newFakeRepo(), &fakePublisher{})

	body, contentType := multipartBody(t, "clip.mp4", nil)
	req := httptest.NewRequest(http.MethodPost, "/analyses", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGetAnalysis(t *testing.T) {
	repo := newFakeRepo()
	rec := entity.NewAnalysis("user-1", "user-1/abc.mp4", 1024, 3)
	require.NoError(t, repo.Create(context.Background(), rec))

	srv := newTestServer(t, nil, &fakeStore{}, repo, &fakePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/analyses/"+rec.ID.String(), nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got AnalysisResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, rec.ID.String(), got.AnalysisID)
	assert.Equal(t, "PENDING", got.Status)
	assert.Equal(t, "user-1/abc.mp4", got.VideoKey)
}

func TestGetAnalysisNotFound(t *testing.T) {
	srv := newTestServer(t, nil, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/analyses/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetAnalysisInvalidID(t *testing.T) {
	srv := newTestServer(t, nil, &fakeStore{}, newFakeRepo(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/analyses/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
