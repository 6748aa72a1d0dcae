package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

type stubService struct {
	uploads  []*models.UploadRequest
	messages []string
	limit    int
	err      error
	file     *models.ReportFile
}

func (s *stubService) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResult, error) {
	s.uploads = append(s.uploads, req)
	if s.err != nil {
		return nil, s.err
	}
	return &models.UploadResult{
		ID:           "r1",
		HospitalName: req.HospitalName,
		Filename:     req.Filename,
		Summary:      "summary",
		Labs:         models.LabSet{"hba1c": 6.8},
		Insights:     []models.Insight{},
		CreatedAt:    time.Date(2026, 5, 4, 4, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubService) Chat(ctx context.Context, message string) models.ChatReply {
	s.messages = append(s.messages, message)
	return models.NewChatReply("answer to " + message)
}

func (s *stubService) ListReports(ctx context.Context, hospital string, limit int) ([]models.Report, error) {
	s.limit = limit
	return []models.Report{{ID: "r1", HospitalName: hospital}}, s.err
}

func (s *stubService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Report{ID: id}, nil
}

func (s *stubService) GetReportFile(ctx context.Context, id string) (*models.ReportFile, error) {
	return s.file, s.err
}

func (s *stubService) Hospitals(ctx context.Context) ([]models.HospitalStats, error) {
	return []models.HospitalStats{{HospitalName: "Apollo", ReportCount: 2}}, s.err
}

func (s *stubService) Trend(ctx context.Context, labKey, hospital string) ([]models.TrendPoint, error) {
	return []models.TrendPoint{{ReportID: "r1", Value: 6.8}}, s.err
}

func multipartBody(t *testing.T, field, filename string, content []byte, hospital string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if hospital != "" {
		require.NoError(t, mw.WriteField("hospital_name", hospital))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func newTestHandler(svc *stubService) *ReportHandler {
	return NewReportHandler(svc, 1<<20, utils.NopLogger())
}

func TestUploadAcceptsBothFieldNames(t *testing.T) {
	for _, field := range []string{"pdf", "file"} {
		t.Run(field, func(t *testing.T) {
			svc := &stubService{}
			body, contentType := multipartBody(t, field, "cbc.pdf", []byte("%PDF"), "Apollo")

			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			newTestHandler(svc).Upload(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, svc.uploads, 1)
			assert.Equal(t, "cbc.pdf", svc.uploads[0].Filename)
			assert.Equal(t, "Apollo", svc.uploads[0].HospitalName)
			assert.Equal(t, []byte("%PDF"), svc.uploads[0].File)

			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "Apollo", got["hospital_name"])
			assert.Equal(t, "2026-05-04T04:00:00Z", got["created_at"])
			assert.Equal(t, map[string]any{"hba1c": 6.8}, got["labs"])
			assert.NotContains(t, got, "archive_key")
		})
	}
}

func TestUploadMissingFile(t *testing.T) {
	svc := &stubService{}
	body, contentType := multipartBody(t, "", "", nil, "Apollo")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestHandler(svc).Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No file provided"}`, rec.Body.String())
	assert.Empty(t, svc.uploads)
}

func TestUploadNotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestHandler(&stubService{}).Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	svc := &stubService{}
	h := NewReportHandler(svc, 1<<20, utils.NopLogger())
	body, contentType := multipartBody(t, "pdf", "big.pdf", make([]byte, (1<<20)+10), "Apollo")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 MB")
	assert.Empty(t, svc.uploads)
}

func TestUploadServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{utils.NewBadRequestError("Only PDF, DOCX and TXT lab reports are supported."), http.StatusBadRequest, `{"error":"Only PDF, DOCX and TXT lab reports are supported."}`},
		{utils.NewUnprocessableError("Failed to extract text from PDF.", assert.AnError), http.StatusUnprocessableEntity, `{"error":"Failed to extract text from PDF."}`},
		{assert.AnError, http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			body, contentType := multipartBody(t, "pdf", "scan.pdf", []byte("x"), "Apollo")
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			newTestHandler(&stubService{err: tt.err}).Upload(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestChat(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"what is hba1c"}`, "what is hba1c"},
		{"query alias", `{"query":"what is tlc"}`, "what is tlc"},
		{"malformed", `{"message":`, ""},
		{"wrong type", `{"message": 42}`, ""},
		{"empty body", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newTestHandler(svc).Chat(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{tt.want}, svc.messages)

			var reply models.ChatReply
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
			assert.Equal(t, "answer to "+tt.want, reply.Answer)
			assert.Equal(t, reply.Answer, reply.Reply)
		})
	}
}

func TestListReportsLimit(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.ListReports(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?hospital=Apollo&limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.limit)

	rec = httptest.NewRecorder()
	h.ListReports(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReportFile(t *testing.T) {
	svc := &stubService{file: &models.ReportFile{Filename: "scans/cbc.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}}
	r := mux.NewRouter()
	r.HandleFunc("/reports/{id}/file", newTestHandler(svc).GetReportFile)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/r1/file", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=cbc.pdf`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}

func TestHistoryErrorsPassThrough(t *testing.T) {
	svc := &stubService{err: utils.NewServiceUnavailableError("Report history is not enabled")}
	r := mux.NewRouter()
	h := newTestHandler(svc)
	r.HandleFunc("/reports/{id}", h.GetReport)
	r.HandleFunc("/hospitals", h.Hospitals)

	for _, path := range []string{"/reports/r1", "/hospitals"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.JSONEq(t, `{"error":"Report history is not enabled"}`, rec.Body.String())
	}
}
