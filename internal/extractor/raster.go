package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

// PopplerRasterizer renders every PDF page to PNG with poppler's pdftoppm.
type PopplerRasterizer struct {
	Binary   string
	DPI      int
	MaxPages int // passed as -l when positive
}

func (p PopplerRasterizer) Render(ctx context.Context, data []byte) ([]PageImage, error) {
	dir, err := os.MkdirTemp("", "lab-report-pages-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	args := []string{"-png", "-r", strconv.Itoa(p.DPI)}
	if p.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.MaxPages))
	}
	args = append(args, in, filepath.Join(dir, "page"))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}

	var pages []PageImage
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".png") {
			continue
		}
		// pdftoppm zero-pads the page number to the width of the page count.
		var num int
		if _, err := fmt.Sscanf(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".png"), "%d", &num); err != nil {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", num, err)
		}
		pages = append(pages, PageImage{PageNr: num, FileType: "png", Data: raw})
	}

	if len(pages) == 0 {
		return nil, errors.New("pdftoppm produced no pages")
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNr < pages[j].PageNr })
	return pages, nil
}

// PDFRenderer rasterizes pages when pdftoppm is installed and otherwise, or
// when rasterizing fails, falls back to the images the pages embed.
type PDFRenderer struct {
	raster   *PopplerRasterizer
	embedded PDFPageImages
	logger   *utils.Logger
}

// NewPDFRenderer resolves binary on PATH. An empty or missing binary leaves
// only the embedded-image path.
func NewPDFRenderer(binary string, dpi, maxPages int, logger *utils.Logger) *PDFRenderer {
	r := &PDFRenderer{logger: logger}
	if binary == "" {
		return r
	}
	if path, err := exec.LookPath(binary); err == nil {
		r.raster = &PopplerRasterizer{Binary: path, DPI: dpi, MaxPages: maxPages}
	}
	return r
}

// Rasterizes reports whether pages are rendered rather than only mined for
// embedded images.
func (r *PDFRenderer) Rasterizes() bool {
	return r.raster != nil
}

func (r *PDFRenderer) Render(ctx context.Context, data []byte) ([]PageImage, error) {
	if r.raster != nil {
		pages, err := r.raster.Render(ctx, data)
		if err == nil {
			return pages, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Warn("Page rasterization failed, using embedded images", "error", err)
	}
	return r.embedded.Render(ctx, data)
}
