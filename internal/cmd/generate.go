package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dtrwidget/designassist/internal/ailink/encode"
	"github.com/dtrwidget/designassist/internal/core"
	"github.com/dtrwidget/designassist/internal/observability"
	"github.com/dtrwidget/designassist/internal/output"
)

var (
	generateSite       string
	generatePromptFile string
	generateImage      string
	generateFormat     string
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate widget CSS for one styling request",
	Long: `Run a single styling request through the same pipeline the server uses
and print the sanitized stylesheet.

The prompt comes from the argument or --prompt-file. --image embeds a
reference image as a data URL, as the widget editor does.`,
	Example: `  designassist generate "make the title bold and blue"
  designassist generate --image mockup.png --format markdown "match this header"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(generateFormat)
	if err != nil {
		return err
	}

	text, err := readPrompt(args, generatePromptFile)
	if err != nil {
		return err
	}
	if generateImage != "" {
		dataURL, err := imageDataURL(generateImage)
		if err != nil {
			return err
		}
		text = text + " " + dataURL
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, observability.CLILogger)
	if err != nil {
		return err
	}

	result, err := p.Orchestrator.Generate(cmd.Context(), core.GenerationRequest{
		SiteID: generateSite,
		Prompt: text,
	})
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format).FormatResult(result)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

func readPrompt(args []string, path string) (string, error) {
	switch {
	case len(args) > 0 && path != "":
		return "", fmt.Errorf("%w: use either a prompt argument or --prompt-file", core.ErrInvalidRequest)
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	case len(args) > 0:
		return strings.TrimSpace(args[0]), nil
	default:
		return "", fmt.Errorf("%w: prompt is required", core.ErrInvalidRequest)
	}
}

// imageDataURL reads an image file and encodes it as a base64 data URL.
func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	mime := mimetype.Detect(data).String()
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s is not an image (%s)", core.ErrInvalidRequest, path, mime)
	}

	if observability.CLILogger != nil {
		observability.CLILogger.Debug("Embedding reference image",
			zap.String("path", path),
			zap.String("mime", mime),
			zap.Int("bytes", len(data)))
	}
	return "data:" + mime + ";base64," + encode.EncodeBase64String(data), nil
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateSite, "site", "cli", "site ID charged against the rate limit")
	generateCmd.Flags().StringVar(&generatePromptFile, "prompt-file", "", "read the prompt from a file")
	generateCmd.Flags().StringVar(&generateImage, "image", "", "reference image to embed in the prompt")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", "css", "output format: css, table, json, markdown")
}
