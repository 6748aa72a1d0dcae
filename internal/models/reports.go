package models

import (
	"time"
)

// LabSet maps a canonical lab key (e.g. "hba1c") to its parsed value.
type LabSet map[string]float64

type Insight struct {
	Key   string `json:"key"`
	Level string `json:"level"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Lifestyle holds diet and activity tips derived from the parsed values.
type Lifestyle struct {
	Diet     []string `json:"diet"`
	Exercise []string `json:"exercise"`
}

type UploadRequest struct {
	File         []byte
	Filename     string
	HospitalName string
}

type UploadResult struct {
	ID            string    `json:"id"`
	HospitalName  string    `json:"hospital_name"`
	Filename      string    `json:"filename"`
	ExtractedText string    `json:"extracted_text"`
	Summary       string    `json:"summary"`
	Labs          LabSet    `json:"labs"`
	Insights      []Insight `json:"insights"`
	Lifestyle     Lifestyle `json:"lifestyle"`
	UsedOCR       bool      `json:"used_ocr"`
	ArchiveKey    string    `json:"archive_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ChatRequest struct {
	Message string `json:"message"`
	Query   string `json:"query"`
}

// Text returns the message, falling back to the query alias.
func (r ChatRequest) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Query
}

// ChatReply carries the answer under both keys the frontends read.
type ChatReply struct {
	Answer string `json:"answer"`
	Reply  string `json:"reply"`
}

func NewChatReply(text string) ChatReply {
	return ChatReply{Answer: text, Reply: text}
}

// Report is a stored UploadResult.
type Report struct {
	ID            string    `json:"id" db:"id"`
	HospitalName  string    `json:"hospital_name" db:"hospital_name"`
	Filename      string    `json:"filename" db:"filename"`
	UsedOCR       bool      `json:"used_ocr" db:"used_ocr"`
	ExtractedText string    `json:"extracted_text" db:"extracted_text"`
	Summary       string    `json:"summary" db:"summary"`
	Labs          LabSet    `json:"labs" db:"-"`
	ArchiveKey    string    `json:"archive_key,omitempty" db:"archive_key"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type HospitalStats struct {
	HospitalName string    `json:"hospital_name" db:"hospital_name"`
	ReportCount  int       `json:"report_count" db:"report_count"`
	LastUpload   time.Time `json:"last_upload" db:"last_upload"`
}

type TrendPoint struct {
	ReportID  string    `json:"report_id"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportFile is an archived original document.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
