package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, hospital string, limit int) ([]models.Report, error)
	Hospitals(ctx context.Context) ([]models.HospitalStats, error)
	Trend(ctx context.Context, hospital, labKey string) ([]models.TrendPoint, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type reportRow struct {
	models.Report
	LabsJSON string `db:"labs"`
}

func (r reportRow) toModel() (models.Report, error) {
	report := r.Report
	report.Labs = models.LabSet{}
	if r.LabsJSON != "" {
		if err := json.Unmarshal([]byte(r.LabsJSON), &report.Labs); err != nil {
			return models.Report{}, fmt.Errorf("decode labs of report %s: %w", r.ID, err)
		}
	}
	return report, nil
}

const reportColumns = `id, hospital_name, filename, used_ocr, extracted_text, summary, labs, archive_key, created_at`

func (r *repository) Create(ctx context.Context, report *models.Report) error {
	labs := report.Labs
	if labs == nil {
		labs = models.LabSet{}
	}
	labsJSON, err := json.Marshal(labs)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		report.ID,
		report.HospitalName,
		report.Filename,
		report.UsedOCR,
		report.ExtractedText,
		report.Summary,
		string(labsJSON),
		report.ArchiveKey,
		report.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}

	for key, value := range labs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lab_values (report_id, lab_key, value) VALUES ($1, $2, $3)`,
			report.ID, key, value,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var row reportRow
	err := r.db.GetContext(ctx, &row, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	report, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports newest first, optionally for one hospital.
func (r *repository) List(ctx context.Context, hospital string, limit int) ([]models.Report, error) {
	var rows []reportRow
	var err error

	if hospital == "" {
		err = r.db.SelectContext(ctx, &rows,
			`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id LIMIT $1`, limit)
	} else {
		err = r.db.SelectContext(ctx, &rows,
			`SELECT `+reportColumns+` FROM reports WHERE hospital_name = $1 ORDER BY created_at DESC, id LIMIT $2`, hospital, limit)
	}
	if err != nil {
		return nil, err
	}

	reports := make([]models.Report, 0, len(rows))
	for _, row := range rows {
		report, err := row.toModel()
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *repository) Hospitals(ctx context.Context) ([]models.HospitalStats, error) {
	var rows []struct {
		HospitalName string `db:"hospital_name"`
		ReportCount  int    `db:"report_count"`
		LastUpload   string `db:"last_upload"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT hospital_name, COUNT(*) AS report_count, MAX(created_at) AS last_upload
		FROM reports
		GROUP BY hospital_name
		ORDER BY hospital_name
	`)
	if err != nil {
		return nil, err
	}

	stats := make([]models.HospitalStats, 0, len(rows))
	for _, row := range rows {
		last, err := parseTimestamp(row.LastUpload)
		if err != nil {
			return nil, err
		}
		stats = append(stats, models.HospitalStats{
			HospitalName: row.HospitalName,
			ReportCount:  row.ReportCount,
			LastUpload:   last,
		})
	}
	return stats, nil
}

// Trend returns the values of one lab key over time, oldest first.
func (r *repository) Trend(ctx context.Context, hospital, labKey string) ([]models.TrendPoint, error) {
	query := `
		SELECT r.id AS report_id, v.value AS value, r.created_at AS created_at
		FROM lab_values v
		JOIN reports r ON r.id = v.report_id
		WHERE v.lab_key = $1`
	args := []any{labKey}
	if hospital != "" {
		query += ` AND r.hospital_name = $2`
		args = append(args, hospital)
	}
	query += ` ORDER BY r.created_at, r.id`

	var rows []struct {
		ReportID  string    `db:"report_id"`
		Value     float64   `db:"value"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	points := make([]models.TrendPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, models.TrendPoint{
			ReportID:  row.ReportID,
			Value:     row.Value,
			CreatedAt: row.CreatedAt,
		})
	}
	return points, nil
}

// parseTimestamp reads aggregate timestamps, which sqlite returns as text.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
