package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/format"
	"github.com/sandevgo/tuskmem/internal/service/memory"
	"github.com/spf13/cobra"
)

var (
	formatOpts = core.FormatOptions{MaxTokens: memory.DefaultMaxTokens}
	formatText bool
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Pack JSON sections from stdin into a token budget",
	Long: `Reads a JSON array of sections ({"id","content","priority","tokens","source"})
from stdin and prints the budgeted selection. Sections without a token count
are estimated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormat(cmd.InOrStdin(), cmd.OutOrStdout(), formatOpts, formatText)
	},
}

func runFormat(in io.Reader, out io.Writer, opts core.FormatOptions, textOnly bool) error {
	var sections []core.ContentSection
	if err := json.NewDecoder(in).Decode(&sections); err != nil {
		return fmt.Errorf("failed to decode sections: %w", err)
	}

	res, err := format.Format(format.WithEstimatedTokens(sections), opts)
	if err != nil {
		return err
	}

	if textOnly {
		_, err := fmt.Fprintln(out, res.Formatted)
		return err
	}
	return writeJSON(out, res)
}

func init() {
	flags := formatCmd.Flags()
	flags.IntVarP(&formatOpts.MaxTokens, "max-tokens", "m", memory.DefaultMaxTokens, "token budget")
	flags.BoolVar(&formatOpts.IncludeTokens, "tokens", false, "annotate sections with token counts")
	flags.BoolVar(&formatOpts.IncludeMetadata, "metadata", false, "annotate sections with their source and report metadata")
	flags.StringVar(&formatOpts.Separator, "separator", format.DefaultSeparator, "text between sections")
	flags.Float64Var(&formatOpts.SimilarityThreshold, "threshold", format.DefaultSimilarityThreshold, "near-duplicate similarity threshold")
	flags.BoolVar(&formatText, "text", false, "print only the formatted text")

	rootCmd.AddCommand(formatCmd)
}
