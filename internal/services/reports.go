package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/extractor"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/labs"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/repository"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/storage"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	unsupportedFormatMessage = "Only PDF, DOCX and TXT lab reports are supported."
	historyDisabledMessage   = "Report history is not enabled"
	archiveDisabledMessage   = "Report archive is not enabled"
)

type ReportService interface {
	Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResult, error)
	Chat(ctx context.Context, message string) models.ChatReply
	ListReports(ctx context.Context, hospital string, limit int) ([]models.Report, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	GetReportFile(ctx context.Context, id string) (*models.ReportFile, error)
	Hospitals(ctx context.Context) ([]models.HospitalStats, error)
	Trend(ctx context.Context, labKey, hospital string) ([]models.TrendPoint, error)
}

type TextAcquirer interface {
	Acquire(ctx context.Context, format extractor.Format, data []byte) (extractor.Text, error)
}

type Summarizer interface {
	Build(ctx context.Context, text string, labSet models.LabSet) string
}

type ChatResponder interface {
	Respond(ctx context.Context, message string) string
}

// Dependencies wires the service. Repo and Archive are optional.
type Dependencies struct {
	Acquirer    TextAcquirer
	Summarizer  Summarizer
	Responder   ChatResponder
	Repo        repository.Repository
	Archive     storage.Archive
	MaxFileSize int64
	Now         func() time.Time
}

type reportService struct {
	acquirer    TextAcquirer
	summarizer  Summarizer
	responder   ChatResponder
	repo        repository.Repository
	archive     storage.Archive
	maxFileSize int64
	now         func() time.Time
	logger      *utils.Logger
}

func NewService(deps Dependencies, logger *utils.Logger) ReportService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &reportService{
		acquirer:    deps.Acquirer,
		summarizer:  deps.Summarizer,
		responder:   deps.Responder,
		repo:        deps.Repo,
		archive:     deps.Archive,
		maxFileSize: deps.MaxFileSize,
		now:         now,
		logger:      logger,
	}
}

func (s *reportService) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResult, error) {
	format, err := s.validate(req)
	if err != nil {
		s.logger.Warn("Rejected upload", "filename", req.Filename, "error", err)
		return nil, err
	}

	acquired, err := s.acquirer.Acquire(ctx, format, req.File)
	if err != nil {
		s.logger.Error("Failed to extract text", "error", err, "filename", req.Filename, "format", format)
		return nil, utils.NewUnprocessableError(acquisitionMessage(format), err)
	}

	labSet := labs.Extract(acquired.Text)
	result := &models.UploadResult{
		ID:            utils.GenerateID(),
		HospitalName:  req.HospitalName,
		Filename:      req.Filename,
		ExtractedText: acquired.Text,
		Summary:       s.summarizer.Build(ctx, acquired.Text, labSet),
		Labs:          labSet,
		Insights:      labs.Insights(labSet),
		Lifestyle:     labs.Lifestyle(labSet),
		UsedOCR:       acquired.UsedFallback,
		CreatedAt:     s.now().UTC(),
	}

	s.store(ctx, result, format, req.File)

	s.logger.Info("Lab report processed",
		"id", result.ID,
		"hospital", result.HospitalName,
		"filename", result.Filename,
		"used_ocr", result.UsedOCR,
		"labs", len(result.Labs),
		"text_length", len(result.ExtractedText))

	return result, nil
}

func (s *reportService) validate(req *models.UploadRequest) (extractor.Format, error) {
	format, ok := extractor.DetectFormat(req.Filename)
	if !ok {
		return "", utils.NewBadRequestError(unsupportedFormatMessage)
	}
	if strings.TrimSpace(req.HospitalName) == "" {
		return "", utils.NewBadRequestError("hospital_name is required")
	}
	if len(req.File) == 0 {
		return "", utils.NewBadRequestError("Uploaded file is empty")
	}
	if s.maxFileSize > 0 && int64(len(req.File)) > s.maxFileSize {
		return "", utils.NewBadRequestError(fmt.Sprintf("File exceeds the %d MB upload limit", s.maxFileSize>>20))
	}
	if format == extractor.FormatTXT {
		if err := extractor.ValidateText(req.File); err != nil {
			return "", utils.NewBadRequestError("Text report does not contain readable text")
		}
	}
	return format, nil
}

func acquisitionMessage(format extractor.Format) string {
	if format == extractor.FormatPDF {
		return "Failed to extract text from PDF."
	}
	return "Failed to extract text from document."
}

// store archives and records the result. Failures are logged only.
func (s *reportService) store(ctx context.Context, result *models.UploadResult, format extractor.Format, data []byte) {
	if s.archive != nil {
		key := storage.ReportKey(result.ID, result.Filename)
		if err := s.archive.Upload(ctx, key, data, format.ContentType()); err != nil {
			s.logger.Warn("Failed to archive report", "error", err, "id", result.ID)
		} else {
			result.ArchiveKey = key
		}
	}

	if s.repo == nil {
		return
	}

	report := &models.Report{
		ID:            result.ID,
		HospitalName:  result.HospitalName,
		Filename:      result.Filename,
		UsedOCR:       result.UsedOCR,
		ExtractedText: result.ExtractedText,
		Summary:       result.Summary,
		Labs:          result.Labs,
		ArchiveKey:    result.ArchiveKey,
		CreatedAt:     result.CreatedAt,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		s.logger.Error("Failed to save report history", "error", err, "id", result.ID)
		if result.ArchiveKey != "" {
			if err := s.archive.Delete(ctx, result.ArchiveKey); err != nil {
				s.logger.Warn("Failed to remove orphaned archive", "error", err, "key", result.ArchiveKey)
			}
			result.ArchiveKey = ""
		}
	}
}

func (s *reportService) Chat(ctx context.Context, message string) models.ChatReply {
	return models.NewChatReply(s.responder.Respond(ctx, message))
}

func (s *reportService) ListReports(ctx context.Context, hospital string, limit int) ([]models.Report, error) {
	if s.repo == nil {
		return nil, utils.NewServiceUnavailableError(historyDisabledMessage)
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	reports, err := s.repo.List(ctx, hospital, limit)
	if err != nil {
		s.logger.Error("Failed to list reports", "error", err, "hospital", hospital)
		return nil, utils.NewInternalError("Failed to retrieve reports")
	}
	return reports, nil
}

func (s *reportService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	if s.repo == nil {
		return nil, utils.NewServiceUnavailableError(historyDisabledMessage)
	}

	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get report", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve report")
	}
	if report == nil {
		return nil, utils.NewNotFoundError("Report not found")
	}

	return report, nil
}

func (s *reportService) GetReportFile(ctx context.Context, id string) (*models.ReportFile, error) {
	if s.archive == nil {
		return nil, utils.NewServiceUnavailableError(archiveDisabledMessage)
	}

	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ArchiveKey == "" {
		return nil, utils.NewNotFoundError("Original file was not archived")
	}

	data, contentType, err := s.archive.Download(ctx, report.ArchiveKey)
	if err != nil {
		s.logger.Error("Failed to download archived report", "error", err, "key", report.ArchiveKey)
		return nil, utils.NewInternalError("Failed to retrieve archived report")
	}
	if contentType == "" {
		if format, ok := extractor.DetectFormat(report.Filename); ok {
			contentType = format.ContentType()
		}
	}

	return &models.ReportFile{
		Filename:    report.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (s *reportService) Hospitals(ctx context.Context) ([]models.HospitalStats, error) {
	if s.repo == nil {
		return nil, utils.NewServiceUnavailableError(historyDisabledMessage)
	}

	stats, err := s.repo.Hospitals(ctx)
	if err != nil {
		s.logger.Error("Failed to list hospitals", "error", err)
		return nil, utils.NewInternalError("Failed to retrieve hospitals")
	}
	return stats, nil
}

func (s *reportService) Trend(ctx context.Context, labKey, hospital string) ([]models.TrendPoint, error) {
	if s.repo == nil {
		return nil, utils.NewServiceUnavailableError(historyDisabledMessage)
	}
	if !labs.IsKnownKey(labKey) {
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unknown lab key %q", labKey))
	}

	points, err := s.repo.Trend(ctx, hospital, labKey)
	if err != nil {
		s.logger.Error("Failed to load lab trend", "error", err, "key", labKey, "hospital", hospital)
		return nil, utils.NewInternalError("Failed to retrieve lab trend")
	}
	return points, nil
}
