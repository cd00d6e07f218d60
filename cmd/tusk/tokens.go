package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sandevgo/tuskmem/pkg/tokens"
	"github.com/spf13/cobra"
)

var tokensExact bool

var tokensCmd = &cobra.Command{
	Use:   "tokens [text]...",
	Short: "Estimate the token count of text (args or stdin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = string(data)
		}

		var exact tokens.Counter
		if tokensExact {
			tk, err := tokens.NewTiktoken(tokens.DefaultEncoding)
			if err != nil {
				return err
			}
			exact = tk
		}
		return printTokens(cmd.OutOrStdout(), text, exact)
	},
}

// printTokens reports the estimate and, when exact is set, a real BPE count
// next to it.
func printTokens(w io.Writer, text string, exact tokens.Counter) error {
	if _, err := fmt.Fprintf(w, "estimate: %d\n", tokens.Estimate(text)); err != nil {
		return err
	}
	if exact == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "%s: %d\n", tokens.DefaultEncoding, exact.Count(text))
	return err
}

func init() {
	tokensCmd.Flags().BoolVar(&tokensExact, "exact", false, "also count with the "+tokens.DefaultEncoding+" encoding")
	rootCmd.AddCommand(tokensCmd)
}
