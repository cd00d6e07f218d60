package main

import (
	"fmt"
	"strings"

	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/service/memory"
	"github.com/spf13/cobra"
)

var rememberStatic bool

var rememberCmd = &cobra.Command{
	Use:   "remember <user> <text>...",
	Short: "Store a memory for a user",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		content := strings.Join(args[1:], " ")
		return withAssembler(ctx, func(a *memory.Assembler, _ *config.MemoryConfig) error {
			resp, err := a.Remember(ctx, args[0], content, rememberStatic)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", resp.Status, resp.ID)
			return err
		})
	},
}

func init() {
	rememberCmd.Flags().BoolVar(&rememberStatic, "static", false, "store as a long-lived profile fact")
	rootCmd.AddCommand(rememberCmd)
}
