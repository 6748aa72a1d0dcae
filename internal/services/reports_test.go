package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/chat"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/extractor"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/llm"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/summary"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

type fakeAcquirer struct {
	text  extractor.Text
	err   error
	calls int
}

func (f *fakeAcquirer) Acquire(ctx context.Context, format extractor.Format, data []byte) (extractor.Text, error) {
	f.calls++
	return f.text, f.err
}

type failingGenerator struct{}

func (failingGenerator) Available() bool { return true }

func (failingGenerator) Generate(context.Context, string, string) (string, error) {
	return "", errors.New("upstream 502")
}

type fakeRepo struct {
	mu      sync.Mutex
	reports map[string]*models.Report
	err     error
}

func (f *fakeRepo) Create(ctx context.Context, r *models.Report) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reports == nil {
		f.reports = map[string]*models.Report{}
	}
	f.reports[r.ID] = r
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports[id], nil
}

func (f *fakeRepo) List(ctx context.Context, hospital string, limit int) ([]models.Report, error) {
	out := make([]models.Report, 0, limit)
	for _, r := range f.reports {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) Hospitals(ctx context.Context) ([]models.HospitalStats, error) {
	return nil, errors.New("disk I/O error")
}

func (f *fakeRepo) Trend(ctx context.Context, hospital, labKey string) ([]models.TrendPoint, error) {
	return []models.TrendPoint{{ReportID: "r1", Value: 6.8}}, nil
}

type fakeArchive struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	deleted []string
}

func (f *fakeArchive) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
		f.types = map[string]string{}
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeArchive) Download(ctx context.Context, key string) ([]byte, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", errors.New("no such key")
	}
	return data, f.types[key], nil
}

func (f *fakeArchive) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

const reportText = "City Lab\nHbA1c: 6.8 %\nFasting Plasma Glucose 132 mg/dL\nImpression: poorly controlled diabetes."

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

func newService(acq *fakeAcquirer, deps Dependencies) ReportService {
	logger := utils.NopLogger()
	deps.Acquirer = acq
	deps.Summarizer = summary.NewBuilder(llm.Unavailable{}, logger)
	deps.Responder = chat.NewResponder(failingGenerator{}, logger)
	deps.Now = func() time.Time { return fixedNow }
	return NewService(deps, logger)
}

func upload(filename string) *models.UploadRequest {
	return &models.UploadRequest{File: []byte("%PDF-1.7 ..."), Filename: filename, HospitalName: "Apollo"}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.StatusCode
}

func TestUploadBuildsResult(t *testing.T) {
	acq := &fakeAcquirer{text: extractor.Text{Text: reportText}}
	svc := newService(acq, Dependencies{})

	res, err := svc.Upload(context.Background(), upload("report.pdf"))
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "Apollo", res.HospitalName)
	assert.Equal(t, "report.pdf", res.Filename)
	assert.Equal(t, reportText, res.ExtractedText)
	assert.Equal(t, models.LabSet{"hba1c": 6.8, "fasting_glucose": 132}, res.Labs)
	assert.Equal(t, "Impression: poorly controlled diabetes.", res.Summary)
	assert.False(t, res.UsedOCR)
	assert.Equal(t, time.UTC, res.CreatedAt.Location())
	assert.True(t, fixedNow.Equal(res.CreatedAt))
	assert.Empty(t, res.ArchiveKey)

	assert.Len(t, res.Lifestyle.Diet, 6)
	assert.Len(t, res.Lifestyle.Exercise, 4)

	require.Len(t, res.Insights, 2)
	assert.Equal(t, "hba1c", res.Insights[0].Key)
	assert.Equal(t, "high", res.Insights[0].Level)
}

func TestUploadIsRepeatable(t *testing.T) {
	acq := &fakeAcquirer{text: extractor.Text{Text: reportText}}
	svc := newService(acq, Dependencies{})

	first, err := svc.Upload(context.Background(), upload("report.pdf"))
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), upload("report.pdf"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Labs, second.Labs)
	assert.Equal(t, first.ExtractedText, second.ExtractedText)
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name string
		req  *models.UploadRequest
	}{
		{"unsupported extension", upload("scan.png")},
		{"no extension", upload("report")},
		{"missing hospital", &models.UploadRequest{File: []byte("x"), Filename: "a.pdf"}},
		{"empty file", &models.UploadRequest{Filename: "a.pdf", HospitalName: "Apollo"}},
		{"too large", &models.UploadRequest{File: make([]byte, 2<<20), Filename: "a.pdf", HospitalName: "Apollo"}},
		{"binary txt", &models.UploadRequest{File: []byte{0, 1, 2, 3, 4, 5, 6, 7}, Filename: "a.txt", HospitalName: "Apollo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acq := &fakeAcquirer{text: extractor.Text{Text: reportText}}
			svc := newService(acq, Dependencies{MaxFileSize: 1 << 20})

			res, err := svc.Upload(context.Background(), tt.req)
			assert.Nil(t, res)
			assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
			assert.Zero(t, acq.calls)
		})
	}
}

func TestUploadUnsupportedExtensionMessage(t *testing.T) {
	svc := newService(&fakeAcquirer{}, Dependencies{})

	_, err := svc.Upload(context.Background(), upload("report.xlsx"))
	assert.EqualError(t, err, "Only PDF, DOCX and TXT lab reports are supported.")
}

func TestUploadAcquisitionFailure(t *testing.T) {
	acqErr := &extractor.AcquisitionError{Fallback: errors.New("no pages")}
	svc := newService(&fakeAcquirer{err: acqErr}, Dependencies{})

	_, err := svc.Upload(context.Background(), upload("scan.pdf"))
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
	assert.ErrorIs(t, err, extractor.ErrTextAcquisition)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Failed to extract text from PDF.", appErr.Message)
}

func TestUploadFallbackTextWithoutLabs(t *testing.T) {
	acq := &fakeAcquirer{text: extractor.Text{Text: "", UsedFallback: true}}
	svc := newService(acq, Dependencies{})

	res, err := svc.Upload(context.Background(), upload("scan.pdf"))
	require.NoError(t, err)

	assert.True(t, res.UsedOCR)
	assert.Equal(t, summary.NoTextMessage, res.Summary)
	assert.Empty(t, res.Labs)
	assert.NotNil(t, res.Insights)
}

func TestUploadArchivesAndRecords(t *testing.T) {
	repo := &fakeRepo{}
	archive := &fakeArchive{}
	svc := newService(&fakeAcquirer{text: extractor.Text{Text: reportText}}, Dependencies{Repo: repo, Archive: archive})

	res, err := svc.Upload(context.Background(), upload("dir/report.pdf"))
	require.NoError(t, err)

	assert.Equal(t, "reports/"+res.ID+"/report.pdf", res.ArchiveKey)
	assert.Equal(t, "application/pdf", archive.types[res.ArchiveKey])

	stored, err := svc.GetReport(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Summary, stored.Summary)
	assert.Equal(t, res.ArchiveKey, stored.ArchiveKey)

	file, err := svc.GetReportFile(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "dir/report.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, []byte("%PDF-1.7 ..."), file.Data)
}

func TestUploadSurvivesStorageFailures(t *testing.T) {
	repo := &fakeRepo{err: errors.New("database is locked")}
	archive := &fakeArchive{}
	svc := newService(&fakeAcquirer{text: extractor.Text{Text: reportText}}, Dependencies{Repo: repo, Archive: archive})

	res, err := svc.Upload(context.Background(), upload("report.pdf"))
	require.NoError(t, err)

	assert.Empty(t, res.ArchiveKey)
	assert.Equal(t, []string{"reports/" + res.ID + "/report.pdf"}, archive.deleted)
	assert.Empty(t, archive.objects)
}

func TestUploadSurvivesArchiveFailure(t *testing.T) {
	repo := &fakeRepo{}
	archive := &fakeArchive{putErr: errors.New("connection refused")}
	svc := newService(&fakeAcquirer{text: extractor.Text{Text: reportText}}, Dependencies{Repo: repo, Archive: archive})

	res, err := svc.Upload(context.Background(), upload("report.pdf"))
	require.NoError(t, err)
	assert.Empty(t, res.ArchiveKey)

	stored, err := svc.GetReport(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ArchiveKey)
}

func TestChatFallsBackWhenGeneratorFails(t *testing.T) {
	svc := newService(&fakeAcquirer{}, Dependencies{})

	reply := svc.Chat(context.Background(), "What does high glucose mean?")
	assert.Equal(t, chat.Fallback("What does high glucose mean?"), reply.Answer)
	assert.Equal(t, reply.Answer, reply.Reply)

	empty := svc.Chat(context.Background(), "")
	assert.NotEmpty(t, empty.Answer)
}

func TestHistoryDisabled(t *testing.T) {
	svc := newService(&fakeAcquirer{}, Dependencies{})
	ctx := context.Background()

	_, err := svc.ListReports(ctx, "", 0)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	_, err = svc.GetReport(ctx, "x")
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	_, err = svc.Hospitals(ctx)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	_, err = svc.Trend(ctx, "hba1c", "")
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	_, err = svc.GetReportFile(ctx, "x")
	assert.EqualError(t, err, "Report archive is not enabled")
}

func TestHistoryQueries(t *testing.T) {
	svc := newService(&fakeAcquirer{}, Dependencies{Repo: &fakeRepo{}, Archive: &fakeArchive{}})
	ctx := context.Background()

	_, err := svc.GetReport(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = svc.GetReportFile(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = svc.Trend(ctx, "cholesterol_ratio", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	points, err := svc.Trend(ctx, "hba1c", "Apollo")
	require.NoError(t, err)
	assert.Len(t, points, 1)

	_, err = svc.Hospitals(ctx)
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}
