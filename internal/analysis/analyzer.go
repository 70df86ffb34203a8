// Package analysis implements the chart read pipeline: prompt building,
// the single vision-model analysis call, the fail-closed validation gate,
// and the model-redraw annotation fallback chain.
package analysis

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/phuslu/log"

	"github.com/quantlens/chartlens/internal/modelclient"
	"github.com/quantlens/chartlens/internal/models"
)

// Analyzer sequences prompt, model call, parse and validation for one
// chart image. It holds no per-request state; one instance serves any
// number of sequential calls.
type Analyzer struct {
	client        modelclient.Client
	analysisModel string
	annotator     *AnnotationClient
	logger        *log.Logger
}

// NewAnalyzer wires the pipeline around an injected model client. client
// may be nil when no API key is configured; calls then fail fast with
// ConfigurationError instead of crashing.
func NewAnalyzer(client modelclient.Client, analysisModel string, annotationModels []string, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Analyzer{
		client:        client,
		analysisModel: analysisModel,
		annotator:     NewAnnotationClient(client, annotationModels, logger),
		logger:        logger,
	}
}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// stripFence unwraps an optional Markdown code fence around the JSON body.
// Without a fence the text passes through untouched.
func stripFence(text string) string {
	if m := fencePattern.FindStringSubmatch(text); len(m) == 2 {
		return m[1]
	}
	return text
}

// AnalyzeChart runs one analysis pass over a base64 chart image. The model
// is called exactly once; every failure mode maps to one typed error and is
// terminal for this call.
func (a *Analyzer) AnalyzeChart(ctx context.Context, imageB64, userQuestion string) (*models.ChartRead, error) {
	if a.client == nil {
		return nil, &ConfigurationError{Reason: "model client not configured"}
	}

	prompt := BuildAnalysisPrompt(userQuestion)

	out, err := a.client.GenerateFromImage(ctx, a.analysisModel, imageB64, prompt, false)
	if err != nil {
		return nil, &ModelError{Err: err}
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return nil, &EmptyResponseError{}
	}

	var raw any
	body := stripFence(text)
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		a.logger.Debug().Str("model", a.analysisModel).Str("raw", text).Msg("unparseable model response")
		return nil, &ParseError{Err: err, Raw: text}
	}

	read, err := ValidateChartRead(raw)
	if err != nil {
		return nil, err
	}
	a.logger.Info().
		Str("model", a.analysisModel).
		Str("regime", string(read.Regime)).
		Str("confidence", string(read.Confidence)).
		Msg("chart read validated")
	return read, nil
}

// AnalyzeAndAnnotate composes analysis with the model-redraw annotation
// chain. Analysis failure short-circuits; annotation failure degrades to an
// empty image alongside the valid read.
func (a *Analyzer) AnalyzeAndAnnotate(ctx context.Context, imageB64, userQuestion string) (*models.ChartRead, string, error) {
	read, err := a.AnalyzeChart(ctx, imageB64, userQuestion)
	if err != nil {
		return nil, "", err
	}
	return read, a.annotator.Annotate(ctx, imageB64, read), nil
}
