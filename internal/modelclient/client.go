// Package modelclient is the boundary to the vision model provider. The
// pipeline depends only on the Client interface; the production
// implementation drives OpenAI-compatible chat models through eino.
package modelclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/quantlens/chartlens/internal/imaging"
)

// Output carries whatever a model call produced: assistant text, an inline
// image payload (bare base64), or both.
type Output struct {
	Text        string
	InlineImage string
}

// Client sends one image plus prompt to a named model variant. wantImage
// signals that the caller expects an inline image back rather than text.
type Client interface {
	GenerateFromImage(ctx context.Context, modelID, imageB64, prompt string, wantImage bool) (*Output, error)
}

// EinoClient implements Client on top of eino chat models. Model handles
// are constructed lazily per variant and reused.
type EinoClient struct {
	apiKey  string
	baseURL string

	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

// NewEinoClient builds a client for an OpenAI-compatible backend. baseURL
// may be empty for the provider default.
func NewEinoClient(apiKey, baseURL string) *EinoClient {
	return &EinoClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  make(map[string]model.BaseChatModel),
	}
}

func (c *EinoClient) chatModel(ctx context.Context, modelID string) (model.BaseChatModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cm, ok := c.models[modelID]; ok {
		return cm, nil
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  c.apiKey,
		BaseURL: c.baseURL,
		Model:   modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init model %s: %w", modelID, err)
	}
	c.models[modelID] = cm
	return cm, nil
}

// GenerateFromImage issues a single multimodal request. No retry, no
// timeout; the caller bounds the call through ctx.
func (c *EinoClient) GenerateFromImage(ctx context.Context, modelID, imageB64, prompt string, wantImage bool) (*Output, error) {
	cm, err := c.chatModel(ctx, modelID)
	if err != nil {
		return nil, err
	}

	detail := schema.ImageURLDetailAuto
	if wantImage {
		detail = schema.ImageURLDetailHigh
	}
	msg := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: prompt},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:    imaging.DataURI(imageB64),
					Detail: detail,
				},
			},
		},
	}

	resp, err := cm.Generate(ctx, []*schema.Message{msg})
	if err != nil {
		return nil, err
	}

	out := &Output{Text: resp.Content}
	for _, part := range resp.MultiContent {
		if part.Type == schema.ChatMessagePartTypeImageURL && part.ImageURL != nil {
			out.InlineImage = imaging.StripDataURI(part.ImageURL.URL)
			break
		}
	}
	return out, nil
}
