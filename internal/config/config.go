package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"backend_url"`

	AnalysisModel    string   `json:"analysis_model"`
	AnnotationModels []string `json:"annotation_models"`

	Theme    string `json:"theme"`
	LogLevel string `json:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://api.openai.com/v1",
		AnalysisModel: "gpt-4o",
		AnnotationModels: []string{
			"gemini-2.5-flash-image-preview",
			"gemini-2.0-flash-preview-image-generation",
		},
		Theme:    "dark",
		LogLevel: "info",
	}
}

// Load builds the config from defaults plus the environment. A .env file in
// the working directory is honored when present. A missing API key is a
// valid state; the pipeline reports it as a configuration error on use.
func Load() *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v := os.Getenv("CHARTLENS_API_KEY"); v != "" {
		cfg.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("CHARTLENS_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CHARTLENS_ANALYSIS_MODEL"); v != "" {
		cfg.AnalysisModel = v
	}
	if v := os.Getenv("CHARTLENS_ANNOTATION_MODELS"); v != "" {
		var ids []string
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		cfg.AnnotationModels = ids
	}
	if v := os.Getenv("CHARTLENS_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("CHARTLENS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// HasModelClient reports whether the external model capability is
// configured at all.
func (c *Config) HasModelClient() bool {
	return c.APIKey != ""
}
