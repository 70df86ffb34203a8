package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/quantlens/chartlens/internal/modelclient"
	"github.com/quantlens/chartlens/internal/models"
)

// AnnotationClient asks image-capable model variants to redraw the chart
// with the validated levels marked. Variants are tried strictly in order,
// one in flight at a time; the first inline image wins.
type AnnotationClient struct {
	client   modelclient.Client
	variants []string
	logger   *log.Logger
}

func NewAnnotationClient(client modelclient.Client, variants []string, logger *log.Logger) *AnnotationClient {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &AnnotationClient{client: client, variants: variants, logger: logger}
}

// BuildBrief enumerates the levels to draw, one human-readable line per
// level with its color and style. When the read carries no levels the brief
// says so explicitly rather than leaving the model to guess.
func BuildBrief(read *models.ChartRead) string {
	var lines []string
	if read.Support != nil {
		lines = append(lines, fmt.Sprintf("- Support zone at %s (translucent green band): %s",
			models.FormatPrice(read.Support.Price), read.Support.Label))
	}
	if read.Resistance != nil {
		lines = append(lines, fmt.Sprintf("- Resistance zone at %s (translucent red band): %s",
			models.FormatPrice(read.Resistance.Price), read.Resistance.Label))
	}
	if read.Pivot != nil {
		lines = append(lines, fmt.Sprintf("- Pivot level at %s (blue dashed line): %s",
			models.FormatPrice(read.Pivot.Price), read.Pivot.Label))
	}
	if len(lines) == 0 {
		lines = append(lines, "- No clear support or resistance levels; mark only the current price.")
	}
	lines = append(lines, fmt.Sprintf("- Current price reference line at %s.",
		models.FormatPrice(read.CurrentPrice)))
	return strings.Join(lines, "\n")
}

// Annotate runs the fallback chain and returns the first inline image as a
// bare base64 payload. An empty string means no annotation is available; it
// is an expected outcome, not an error.
func (c *AnnotationClient) Annotate(ctx context.Context, imageB64 string, read *models.ChartRead) string {
	if c.client == nil || len(c.variants) == 0 {
		return ""
	}
	prompt := BuildAnnotationPrompt(BuildBrief(read), read.Story)

	for _, variant := range c.variants {
		out, err := c.tryVariant(ctx, variant, imageB64, prompt)
		if err != nil {
			c.logger.Warn().Err(err).Str("variant", variant).Msg("annotation attempt failed")
			continue
		}
		if out.InlineImage != "" {
			c.logger.Info().Str("variant", variant).Msg("annotation image produced")
			return out.InlineImage
		}
		c.logger.Debug().Str("variant", variant).Msg("variant returned no inline image")
	}
	return ""
}

// tryVariant isolates one generation attempt so that a misbehaving client
// cannot take down the rest of the chain.
func (c *AnnotationClient) tryVariant(ctx context.Context, variant, imageB64, prompt string) (out *modelclient.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic in model client: %v", r)
		}
	}()
	out, err = c.client.GenerateFromImage(ctx, variant, imageB64, prompt, true)
	if err == nil && out == nil {
		out = &modelclient.Output{}
	}
	return out, err
}
