package cmd

import (
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/zjrosen/namebridge/internal/config"
	"github.com/zjrosen/namebridge/internal/presentation"
)

var walletsCmd = &cobra.Command{
	Use:   "wallets",
	Short: "Manage the wallets linked to each user",
	Long: `Link and unlink wallets in the config file. A running server picks the
change up without a restart.`,
}

var walletsListCmd = &cobra.Command{
	Use:   "list <user>",
	Short: "List a user's linked wallets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printWallets(cmd.OutOrStdout(), args[0], cfg.Wallets[args[0]])
	},
}

var walletsLinkCmd = &cobra.Command{
	Use:   "link <user> <address>",
	Short: "Link a wallet to a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runWalletsLink,
}

var walletsUnlinkCmd = &cobra.Command{
	Use:   "unlink <user> <address>",
	Short: "Unlink a wallet from a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runWalletsUnlink,
}

func init() {
	rootCmd.AddCommand(walletsCmd)
	walletsCmd.AddCommand(walletsListCmd, walletsLinkCmd, walletsUnlinkCmd)
}

func runWalletsLink(cmd *cobra.Command, args []string) error {
	user, addr := args[0], checksum(args[1])
	updated, err := config.LinkWallet(configPath(), cfg.Wallets, user, addr)
	if err != nil {
		return err
	}
	cfg.Wallets = updated
	return printWallets(cmd.OutOrStdout(), user, updated[user])
}

func runWalletsUnlink(cmd *cobra.Command, args []string) error {
	user := args[0]
	updated, err := config.UnlinkWallet(configPath(), cfg.Wallets, user, args[1])
	if err != nil {
		return err
	}
	cfg.Wallets = updated
	return printWallets(cmd.OutOrStdout(), user, updated[user])
}

// checksum normalizes a hex address to its checksummed form. Anything else
// is passed through for config validation to reject.
func checksum(addr string) string {
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}

func printWallets(w io.Writer, user string, wallets []string) error {
	return presentation.NewFormatter(w).FormatWallets(presentation.WalletsDTO{User: user, Wallets: wallets})
}
