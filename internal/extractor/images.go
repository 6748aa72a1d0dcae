package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/tiff"
)

// PageImage is the raster of one document page handed to a Recognizer.
type PageImage struct {
	PageNr   int
	FileType string // "png" or "jpg"
	Data     []byte
}

func (p PageImage) MIMEType() string {
	switch p.FileType {
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// PDFPageImages renders scanned PDF pages by pulling the page-sized image
// each page embeds. It returns exactly one PageImage per page, in page
// order; a page without any image gets empty Data.
type PDFPageImages struct{}

func (PDFPageImages) Render(ctx context.Context, data []byte) ([]PageImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	perPage, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu extract images: %w", err)
	}

	pages := make([]PageImage, len(perPage))
	for i, images := range perPage {
		page, ok, err := largestImage(i+1, images)
		if err != nil {
			return nil, err
		}
		if !ok {
			page = PageImage{PageNr: i + 1}
		}
		pages[i] = page
	}

	return pages, nil
}

// largestImage picks the biggest image on a page; scanners emit exactly one
// full-page image, other images are logos or stamps.
func largestImage(pageNr int, images map[int]model.Image) (PageImage, bool, error) {
	var (
		best    PageImage
		bestObj int
		found   bool
	)

	for objNr, img := range images {
		raw, err := io.ReadAll(img)
		if err != nil {
			return PageImage{}, false, fmt.Errorf("page %d image %d: %w", pageNr, objNr, err)
		}
		if len(raw) == 0 {
			continue
		}
		if found && (len(raw) < len(best.Data) || (len(raw) == len(best.Data) && objNr > bestObj)) {
			continue
		}
		best = PageImage{PageNr: pageNr, FileType: strings.ToLower(img.FileType), Data: raw}
		bestObj = objNr
		found = true
	}

	if !found {
		return PageImage{}, false, nil
	}

	if best.FileType == "tif" || best.FileType == "tiff" {
		converted, err := tiffToPNG(best.Data)
		if err != nil {
			return PageImage{}, false, fmt.Errorf("page %d: %w", pageNr, err)
		}
		best.FileType = "png"
		best.Data = converted
	}

	return best, true, nil
}

// tiffToPNG re-encodes CCITT/TIFF page scans, which vision models reject.
func tiffToPNG(data []byte) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode tiff: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
