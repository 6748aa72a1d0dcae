package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/extractor"
)

const ocrPrompt = `Transcribe all text visible in this scanned medical lab report page.
Keep the original line order and keep every test name next to its value and unit.
Output plain text only. Do not summarize, interpret or add anything.`

// VisionRecognizer is an extractor.Recognizer backed by a vision-capable
// chat model.
type VisionRecognizer struct {
	gen   *OpenAIGenerator
	model string
}

func NewVisionRecognizer(gen *OpenAIGenerator, model string) *VisionRecognizer {
	return &VisionRecognizer{gen: gen, model: model}
}

func (v *VisionRecognizer) Recognize(ctx context.Context, page extractor.PageImage) (string, error) {
	if len(page.Data) == 0 {
		return "", fmt.Errorf("page %d: empty image", page.PageNr)
	}

	dataURL := "data:" + page.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(page.Data)

	text, err := v.gen.complete(ctx, v.model, []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(ocrPrompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL,
			}),
		}),
	})
	if err != nil {
		return "", fmt.Errorf("page %d: %w", page.PageNr, err)
	}

	return strings.TrimSpace(text), nil
}
