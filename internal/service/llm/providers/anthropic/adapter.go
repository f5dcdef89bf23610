package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"diagramlab/internal/domain/models"
)

// defaultMaxTokens applies when the request leaves MaxTokens unset; the
// Messages API requires it.
const defaultMaxTokens = 4096

// buildMessageParams converts a GenerationRequest to Anthropic SDK format:
// one user message with image blocks first, then the text blocks.
func buildMessageParams(req *models.GenerationRequest) anthropic.MessageNewParams {
	texts := req.TextBlocks()
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Images)+len(texts))
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, img.Base64))
	}
	for _, text := range texts {
		blocks = append(blocks, anthropic.NewTextBlock(text))
	}

	maxTokens := int64(req.Params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Params.Model),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		MaxTokens: maxTokens,
	}

	if req.Params.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Params.Temperature)
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	return params
}

// textFromMessage concatenates the text blocks of a response, skipping
// thinking and tool blocks
func textFromMessage(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, content := range msg.Content {
		if content.Type != "text" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(content.Text)
	}
	return sb.String()
}
