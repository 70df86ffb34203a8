package analysis

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts
var promptFiles embed.FS

// Templates are resolved once at package init; the embedded files are part
// of the build, so a failure here is a broken binary, not a runtime state.
var (
	analyzeTemplate  = mustPrompt("analyze")
	annotateTemplate = mustPrompt("annotate")
)

func loadPrompt(name string) (string, error) {
	content, err := promptFiles.ReadFile(fmt.Sprintf("prompts/%s.md", name))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return string(content), nil
}

func mustPrompt(name string) string {
	content, err := loadPrompt(name)
	if err != nil {
		panic(err)
	}
	return content
}

func fillPrompt(template string, vars map[string]string) string {
	for key, value := range vars {
		template = strings.ReplaceAll(template, fmt.Sprintf("{{.%s}}", key), value)
	}
	return strings.TrimSpace(template)
}

// BuildAnalysisPrompt returns the chart-read instruction, with the trader's
// question (when present) inserted before the closing JSON directive. Pure
// and deterministic; the output always ends with the instruction to respond
// with only JSON, which the validator depends on.
func BuildAnalysisPrompt(userQuestion string) string {
	block := ""
	if q := strings.TrimSpace(userQuestion); q != "" {
		block = fmt.Sprintf("\nThe trader also asked: %q. Weave the answer into the story field.\n", q)
	}
	return fillPrompt(analyzeTemplate, map[string]string{
		"QuestionBlock": block,
	})
}

// BuildAnnotationPrompt embeds the annotation brief and story into the
// drawing instruction sent to image-capable model variants.
func BuildAnnotationPrompt(brief, story string) string {
	return fillPrompt(annotateTemplate, map[string]string{
		"Brief": strings.TrimSpace(brief),
		"Story": strings.TrimSpace(story),
	})
}
