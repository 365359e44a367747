package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/presentation"
)

var keyCmd = &cobra.Command{
	Use:   "key <correlation-key>",
	Short: "Explain a correlation key",
	Long: `Decode a correlation key as it appears in logs and prompts.

Example:
  namebridge key commit-chan1-user1-alice
  namebridge key wallet-select-chan1-user1-my-name-1768651200000`,
	Args: cobra.ExactArgs(1),
	RunE: runKey,
}

func init() {
	rootCmd.AddCommand(keyCmd)
}

func runKey(cmd *cobra.Command, args []string) error {
	k, ok := correlation.Parse(args[0])
	if !ok {
		return fmt.Errorf("not a correlation key: %q", args[0])
	}
	return presentation.NewFormatter(cmd.OutOrStdout()).FormatKey(presentation.FromKey(k))
}
