package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/services"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
	"github.com/gorilla/mux"
)

const (
	// Room for multipart boundaries and the hospital_name field.
	multipartOverhead = 1 << 20
	maxChatBodySize   = 64 << 10
)

// Multipart field names accepted for the uploaded report, in order.
var fileFields = []string{"pdf", "file"}

type ReportHandler struct {
	service     services.ReportService
	maxFileSize int64
	logger      *utils.Logger
}

func NewReportHandler(service services.ReportService, maxFileSize int64, logger *utils.Logger) *ReportHandler {
	return &ReportHandler{
		service:     service,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (h *ReportHandler) tooLarge() error {
	return utils.NewBadRequestError(fmt.Sprintf("File exceeds the %d MB upload limit", h.maxFileSize>>20))
}

func (h *ReportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.maxFileSize + multipartOverhead
	if r.ContentLength > limit {
		respondError(w, h.logger, h.tooLarge())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, h.logger, h.tooLarge())
			return
		}
		respondError(w, h.logger, utils.NewBadRequestError("Invalid form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := formFile(r)
	if err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("No file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		respondError(w, h.logger, utils.NewInternalError("Failed to read file"))
		return
	}
	if int64(len(data)) > h.maxFileSize {
		respondError(w, h.logger, h.tooLarge())
		return
	}

	h.logger.Info("Lab report upload",
		"filename", header.Filename,
		"size", len(data),
		"hospital", r.FormValue("hospital_name"))

	result, err := h.service.Upload(r.Context(), &models.UploadRequest{
		File:         data,
		Filename:     header.Filename,
		HospitalName: r.FormValue("hospital_name"),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range fileFields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, err
		}
	}
	return nil, nil, http.ErrMissingFile
}

// Chat never fails on content: an unreadable body is an empty message.
func (h *ReportHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBodySize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Malformed chat request", "error", err)
		req = models.ChatRequest{}
	}

	respondJSON(w, h.logger, http.StatusOK, h.service.Chat(r.Context(), req.Text()))
}

func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, h.logger, utils.NewBadRequestError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	reports, err := h.service.ListReports(r.Context(), query.Get("hospital"), limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, reports)
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetReport(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, report)
}

func (h *ReportHandler) GetReportFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.GetReportFile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := path.Base(strings.ReplaceAll(file.Filename, "\\", "/"))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("Failed to write archived report", "error", err)
	}
}

func (h *ReportHandler) Hospitals(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Hospitals(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, stats)
}

func (h *ReportHandler) Trend(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.Trend(r.Context(), mux.Vars(r)["key"], r.URL.Query().Get("hospital"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, points)
}
