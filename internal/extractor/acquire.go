package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

// ErrTextAcquisition marks a document from which no path produced text.
var ErrTextAcquisition = errors.New("failed to extract text")

// AcquisitionError reports why both acquisition paths failed.
type AcquisitionError struct {
	Structured error // may be nil when the structured path merely found no text
	Fallback   error
}

func (e *AcquisitionError) Error() string {
	if e.Structured != nil {
		return fmt.Sprintf("%v: structured: %v; fallback: %v", ErrTextAcquisition, e.Structured, e.Fallback)
	}
	return fmt.Sprintf("%v: fallback: %v", ErrTextAcquisition, e.Fallback)
}

func (e *AcquisitionError) Unwrap() []error {
	return []error{ErrTextAcquisition, e.Fallback}
}

const (
	defaultDPI      = 150
	defaultMaxPages = 20
)

var errNoFallback = errors.New("no image recognition available for this document")

// PageSource splits a document into per-page text.
type PageSource func(data []byte) ([]string, error)

// PageRenderer turns document pages into images for recognition.
type PageRenderer interface {
	Render(ctx context.Context, data []byte) ([]PageImage, error)
}

// Recognizer reads the text off one page image.
type Recognizer interface {
	Recognize(ctx context.Context, page PageImage) (string, error)
}

// Text is the outcome of acquisition.
type Text struct {
	Text         string
	UsedFallback bool
}

// Acquirer produces report text: the structured path first, image
// recognition only when that yields nothing.
type Acquirer struct {
	sources     map[Format]PageSource
	renderers   map[Format]PageRenderer
	recognizer  Recognizer
	concurrency int
	maxPages    int
	logger      *utils.Logger
}

type Option func(*Acquirer)

// WithRecognizer enables the image-recognition fallback.
func WithRecognizer(r Recognizer) Option {
	return func(a *Acquirer) { a.recognizer = r }
}

func WithRenderer(format Format, r PageRenderer) Option {
	return func(a *Acquirer) { a.renderers[format] = r }
}

func WithSource(format Format, src PageSource) Option {
	return func(a *Acquirer) { a.sources[format] = src }
}

// WithConcurrency bounds how many pages are recognized at once.
func WithConcurrency(n int) Option {
	return func(a *Acquirer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithMaxPages caps how many pages the fallback recognizes. Later pages are
// dropped with a warning.
func WithMaxPages(n int) Option {
	return func(a *Acquirer) {
		if n > 0 {
			a.maxPages = n
		}
	}
}

// NewAcquirer reads PDF, DOCX and plain text. Scanned PDFs are rasterized with
// pdftoppm when it is on PATH.
func NewAcquirer(logger *utils.Logger, opts ...Option) *Acquirer {
	a := &Acquirer{
		sources: map[Format]PageSource{
			FormatPDF:  PDFPages,
			FormatDOCX: DOCXPages,
			FormatTXT:  TextPages,
		},
		renderers: map[Format]PageRenderer{
			FormatPDF: NewPDFRenderer("pdftoppm", defaultDPI, defaultMaxPages, logger),
		},
		concurrency: 4,
		maxPages:    defaultMaxPages,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FallbackEnabled reports whether scanned documents can be read.
func (a *Acquirer) FallbackEnabled() bool {
	return a.recognizer != nil
}

// Acquire returns the document text. Structured extraction failures are
// logged and treated as empty text; an error is returned only when the
// fallback is needed and fails. It wraps ErrTextAcquisition.
func (a *Acquirer) Acquire(ctx context.Context, format Format, data []byte) (Text, error) {
	text, structErr := a.structured(format, data)
	if structErr != nil {
		a.logger.Warn("Structured text extraction failed", "format", format, "error", structErr)
	}

	if text != "" {
		return Text{Text: text}, nil
	}

	a.logger.Info("No text layer found, falling back to image recognition", "format", format)

	text, err := a.fallback(ctx, format, data)
	if err != nil {
		return Text{}, &AcquisitionError{Structured: structErr, Fallback: err}
	}

	return Text{Text: text, UsedFallback: true}, nil
}

func (a *Acquirer) structured(format Format, data []byte) (string, error) {
	src, ok := a.sources[format]
	if !ok {
		return "", fmt.Errorf("no text source for format %q", format)
	}

	pages, err := src(data)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}

func (a *Acquirer) fallback(ctx context.Context, format Format, data []byte) (string, error) {
	renderer, ok := a.renderers[format]
	if !ok || a.recognizer == nil {
		return "", errNoFallback
	}

	images, err := renderer.Render(ctx, data)
	if err != nil {
		return "", fmt.Errorf("render pages: %w", err)
	}

	if len(images) > a.maxPages {
		a.logger.Warn("Document exceeds page limit, recognizing first pages only",
			"pages", len(images), "limit", a.maxPages)
		images = images[:a.maxPages]
	}

	// Pages are recognized concurrently but joined in page order.
	texts := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		i, img := i, img
		g.Go(func() error {
			text, err := a.recognizer.Recognize(gctx, img)
			if err != nil {
				return fmt.Errorf("recognize page %d: %w", img.PageNr, err)
			}
			texts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.Join(texts, "\n")), nil
}
