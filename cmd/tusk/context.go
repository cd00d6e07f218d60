package main

import (
	"fmt"
	"io"

	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/memory"
	"github.com/spf13/cobra"
)

type contextFlags struct {
	query     string
	callID    string
	noProfile bool
	noRecent  bool
	noSearch  bool
	maxTokens int
	asJSON    bool
	sections  bool
	tokens    bool
	metadata  bool
}

var ctxFlags contextFlags

var contextCmd = &cobra.Command{
	Use:   "context <user>",
	Short: "Print the budgeted context for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		return withAssembler(ctx, func(a *memory.Assembler, _ *config.MemoryConfig) error {
			prompt, err := a.BuildPrompt(ctx, ctxFlags.request(args[0]), ctxFlags.formatOptions())
			if err != nil {
				return err
			}
			return printPrompt(cmd.OutOrStdout(), prompt, ctxFlags)
		})
	},
}

func (f contextFlags) request(userID string) core.ContextRequest {
	return core.ContextRequest{
		UserID:      userID,
		Query:       f.query,
		CallID:      f.callID,
		SkipProfile: f.noProfile,
		SkipRecent:  f.noRecent,
		SkipSearch:  f.noSearch,
		MaxTokens:   f.maxTokens,
	}
}

func (f contextFlags) formatOptions() core.FormatOptions {
	return core.FormatOptions{
		IncludeTokens:   f.tokens,
		IncludeMetadata: f.metadata,
	}
}

// printPrompt writes the record and selection as JSON, the unbudgeted
// sections as JSON for `tusk format`, or the formatted text.
func printPrompt(w io.Writer, p *core.Prompt, f contextFlags) error {
	switch {
	case f.asJSON:
		return writeJSON(w, p)
	case f.sections:
		return writeJSON(w, memory.Sections(p.Record))
	case p.Output.Formatted == "":
		_, err := fmt.Fprintln(w, "Nothing remembered yet.")
		return err
	default:
		_, err := fmt.Fprintln(w, p.Output.Formatted)
		return err
	}
}

func init() {
	flags := contextCmd.Flags()
	flags.StringVarP(&ctxFlags.query, "query", "q", "", "search memories relevant to this text")
	flags.StringVar(&ctxFlags.callID, "call-id", "", "conversation turn id; enables recent memories")
	flags.BoolVar(&ctxFlags.noProfile, "no-profile", false, "skip the user profile")
	flags.BoolVar(&ctxFlags.noRecent, "no-recent", false, "skip recent memories")
	flags.BoolVar(&ctxFlags.noSearch, "no-search", false, "skip query search results")
	flags.IntVarP(&ctxFlags.maxTokens, "max-tokens", "m", 0, "token budget (default TUSK_MAX_TOKENS)")
	flags.BoolVar(&ctxFlags.asJSON, "json", false, "print the record and selection as JSON")
	flags.BoolVar(&ctxFlags.sections, "sections", false, "print the unbudgeted sections as JSON")
	flags.BoolVar(&ctxFlags.tokens, "tokens", false, "annotate sections with token counts")
	flags.BoolVar(&ctxFlags.metadata, "metadata", false, "annotate sections with their source")
	contextCmd.MarkFlagsMutuallyExclusive("json", "sections")

	rootCmd.AddCommand(contextCmd)
}
