package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/quantlens/chartlens/internal/analysis"
	"github.com/quantlens/chartlens/internal/config"
	"github.com/quantlens/chartlens/internal/imaging"
	"github.com/quantlens/chartlens/internal/modelclient"
	"github.com/quantlens/chartlens/internal/models"
	"github.com/quantlens/chartlens/internal/render"
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chartlens",
		Short: "Read and annotate price charts with a vision model",
		Long: `chartlens turns a price-chart screenshot into a structured market read
(trend regime, support/resistance/pivot levels, confidence, narrative)
and an annotated copy of the chart marking those levels.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newAnnotateCmd())
	rootCmd.AddCommand(newRenderCmd())
	return rootCmd
}

func newLogger(cfg *config.Config) *log.Logger {
	return &log.Logger{
		Level:  log.ParseLevel(cfg.LogLevel),
		Writer: &log.ConsoleWriter{ColorOutput: true, Writer: os.Stderr},
	}
}

func newAnalyzer(cfg *config.Config, logger *log.Logger) *analysis.Analyzer {
	var client modelclient.Client
	if cfg.HasModelClient() {
		client = modelclient.NewEinoClient(cfg.APIKey, cfg.BaseURL)
	}
	return analysis.NewAnalyzer(client, cfg.AnalysisModel, cfg.AnnotationModels, logger)
}

// loadImage accepts a local file path or an http(s) URL and returns the
// chart as a bare base64 payload.
func loadImage(arg string) (string, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return imaging.FetchBase64(arg)
	}
	return imaging.ReadFileBase64(arg)
}

func newAnalyzeCmd() *cobra.Command {
	var question string
	var asJSON bool
	var interactive bool

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Produce a structured read of a chart image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger(cfg)

			if question == "" && interactive {
				prompt := &survey.Input{Message: "Question for the analyst (optional):"}
				if err := survey.AskOne(prompt, &question); err != nil {
					return err
				}
			}

			imageB64, err := loadImage(args[0])
			if err != nil {
				return err
			}

			read, err := newAnalyzer(cfg, logger).AnalyzeChart(cmd.Context(), imageB64, question)
			if err != nil {
				return describeFailure(err)
			}

			if asJSON {
				data, _ := json.MarshalIndent(read, "", "  ")
				fmt.Println(string(data))
				return nil
			}
			DisplayRead(read)
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "free-text question to weave into the read")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw ChartRead JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for the question interactively")
	return cmd
}

func newAnnotateCmd() *cobra.Command {
	var question string
	var output string
	var theme string

	cmd := &cobra.Command{
		Use:   "annotate <image>",
		Short: "Analyze a chart and write an annotated copy",
		Long: `Analyze a chart, then produce an annotated image. Model-redraw variants
are tried in order first; when all are exhausted or none are configured the
deterministic overlay renderer paints the levels locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger(cfg)

			if err := confirmOverwrite(output); err != nil {
				return err
			}

			imageB64, err := loadImage(args[0])
			if err != nil {
				return err
			}

			read, annotated, err := newAnalyzer(cfg, logger).AnalyzeAndAnnotate(cmd.Context(), imageB64, question)
			if err != nil {
				return describeFailure(err)
			}
			DisplayRead(read)

			if annotated == "" {
				logger.Info().Msg("no model annotation available, rendering overlay locally")
				plan := models.PlanFromRead(read, models.Theme(theme))
				annotated, err = render.Overlay(imageB64, plan, read)
				if err != nil {
					return err
				}
			}

			if err := imaging.SavePNG(annotated, output); err != nil {
				return err
			}
			fmt.Printf("annotated chart written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "free-text question to weave into the read")
	cmd.Flags().StringVarP(&output, "output", "o", "annotated.png", "output image path")
	cmd.Flags().StringVar(&theme, "theme", "dark", "overlay label theme (dark or light)")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var readPath string
	var output string
	var theme string

	cmd := &cobra.Command{
		Use:   "render <image>",
		Short: "Draw a saved chart read onto an image without model calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirmOverwrite(output); err != nil {
				return err
			}

			data, err := os.ReadFile(readPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", readPath, err)
			}
			var raw any
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("%s is not valid JSON: %w", readPath, err)
			}
			// Saved reads go back through the gate; a hand-edited file with
			// broken invariants is rejected, not drawn.
			read, err := analysis.ValidateChartRead(raw)
			if err != nil {
				return describeFailure(err)
			}

			imageB64, err := loadImage(args[0])
			if err != nil {
				return err
			}

			plan := models.PlanFromRead(read, models.Theme(theme))
			annotated, err := render.Overlay(imageB64, plan, read)
			if err != nil {
				return err
			}
			if err := imaging.SavePNG(annotated, output); err != nil {
				return err
			}
			fmt.Printf("annotated chart written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&readPath, "read", "", "path to a saved ChartRead JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "annotated.png", "output image path")
	cmd.Flags().StringVar(&theme, "theme", "dark", "overlay label theme (dark or light)")
	_ = cmd.MarkFlagRequired("read")
	return cmd
}

func confirmOverwrite(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	overwrite := false
	prompt := &survey.Confirm{Message: fmt.Sprintf("%s exists, overwrite?", path)}
	if err := survey.AskOne(prompt, &overwrite); err != nil {
		return err
	}
	if !overwrite {
		return fmt.Errorf("aborted, %s left untouched", path)
	}
	return nil
}

// describeFailure maps the typed pipeline errors onto operator-friendly
// messages.
func describeFailure(err error) error {
	var cfgErr *analysis.ConfigurationError
	var valErr *analysis.ValidationError
	switch {
	case errors.As(err, &cfgErr):
		return fmt.Errorf("%w (set CHARTLENS_API_KEY or OPENAI_API_KEY)", err)
	case errors.As(err, &valErr):
		return fmt.Errorf("the model response failed validation and was rejected: %w", err)
	default:
		return err
	}
}
