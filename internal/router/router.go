package router

import (
	"net/http"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/handlers"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/middleware"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/services"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"

	"github.com/gorilla/mux"
)

type Options struct {
	MaxFileSize        int64
	ChatRatePerMinute  int
	CORSAllowedOrigins []string
	TrustedProxies     []string
	Features           handlers.Features
}

func NewRouter(service services.ReportService, opts Options, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	reportHandler := handlers.NewReportHandler(service, opts.MaxFileSize, logger)
	health := handlers.Health(opts.Features, logger)
	chat := middleware.RateLimit(opts.ChatRatePerMinute, opts.TrustedProxies)(http.HandlerFunc(reportHandler.Chat))

	// Paths used by the existing frontend.
	r.HandleFunc("/", health).Methods(http.MethodGet)
	r.HandleFunc("/upload", reportHandler.Upload).Methods(http.MethodPost)
	r.Handle("/chat", chat).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", health).Methods(http.MethodGet)
	api.HandleFunc("/upload", reportHandler.Upload).Methods(http.MethodPost)
	api.Handle("/chat", chat).Methods(http.MethodPost)

	// Report history
	api.HandleFunc("/reports", reportHandler.ListReports).Methods(http.MethodGet)
	api.HandleFunc("/reports/trends/{key}", reportHandler.Trend).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}/file", reportHandler.GetReportFile).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}", reportHandler.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/hospitals", reportHandler.Hospitals).Methods(http.MethodGet)

	// Preflight requests match no route, so CORS wraps the whole router.
	return middleware.CORS(opts.CORSAllowedOrigins)(r)
}
