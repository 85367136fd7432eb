package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/survey-cli/internal/extract"
	"github.com/sells-group/survey-cli/internal/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract <survey.docx>",
	Short: "Print the questions found in a survey document",
	Long: `Reads a Word document and prints the questions and options the survey
would ask. A paragraph starting with "N." or ending in "?" begins a question;
the paragraphs after it, up to the next question, are its options.

Examples:
  extract mobility.docx
  extract mobility.docx --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return runExtract(cmd.OutOrStdout(), args[0], format)
	},
}

func init() {
	extractCmd.Flags().String("format", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(extractCmd)
}

type extractResult struct {
	Topic     string           `json:"topic" yaml:"topic"`
	Questions []model.Question `json:"questions" yaml:"questions"`
}

func runExtract(out io.Writer, path, format string) error {
	paragraphs, err := extract.ReadDOCXFile(path)
	if err != nil {
		return err
	}
	res := extractResult{
		Topic:     extract.Topic(filepath.Base(path)),
		Questions: extract.Questions(paragraphs),
	}

	switch format {
	case "text":
		fmt.Fprintf(out, "%s (%d questions)\n", res.Topic, len(res.Questions))
		for _, q := range res.Questions {
			fmt.Fprintf(out, "\n%s\n", q.Stem)
			for _, opt := range q.Options {
				fmt.Fprintf(out, "  - %s\n", opt)
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "extract: encode json")
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "extract: encode yaml")
		}
		return eris.Wrap(enc.Close(), "extract: encode yaml")
	default:
		return eris.Errorf("extract: --format must be one of text, json, yaml (got %q)", strings.TrimSpace(format))
	}
}
