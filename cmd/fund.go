package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/namebridge/internal/config"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/presentation"
)

var fundCmd = &cobra.Command{
	Use:   "fund <label>",
	Short: "Show how a user could pay for a name",
	Long: `Run the funding analysis a registration request would run, without
starting a registration. Prints availability, the required amount and every
wallet that could pay, with its funding path.

Example:
  namebridge fund alice --user 1234
  namebridge fund alice.eth --user 1234 --testnet`,
	Args: cobra.ExactArgs(1),
	RunE: runFund,
}

var (
	fundUser    string
	fundTestnet bool
	fundDays    int
)

func init() {
	rootCmd.AddCommand(fundCmd)

	fundCmd.Flags().StringVar(&fundUser, "user", "", "user whose linked wallets are analysed")
	fundCmd.Flags().BoolVar(&fundTestnet, "testnet", false, "use the testnet profile")
	fundCmd.Flags().IntVar(&fundDays, "days", 0, "registration length in days (default: registration.duration)")
	_ = fundCmd.MarkFlagRequired("user")
}

func runFund(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	label := ens.NormalizeLabel(args[0])
	if err := ens.ValidateLabel(label, ens.MinLabelLength); err != nil {
		return err
	}
	duration := cfg.Registration.Duration
	if fundDays > 0 {
		duration = time.Duration(fundDays) * 24 * time.Hour
	}
	t, err := tunables(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	collab, err := dialCollaborators(ctx, cfg)
	if err != nil {
		return err
	}
	defer collab.close()

	testnet := fundTestnet || cfg.Network == config.NetworkTestnet
	p, err := handler.PreviewFunding(ctx, collab.chain, collab.networks.For(testnet), fundUser, label, duration, t)
	if err != nil {
		return fmt.Errorf("funding preview: %w", err)
	}
	return presentation.NewFormatter(cmd.OutOrStdout()).FormatPreview(presentation.FromPreview(p))
}
