package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add ITEM PRICE",
	Short: "Append a trade record to the ledger",
	Long: `Append a (item, price) record to the shared ledger account.

The record is stamped with the network's current block time, signed with the
configured keypair, and the command waits for confirmation before re-reading
the ledger. A failed submission never touches the ledger view.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := newSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.controller.SubmitRecord(ctx, args[0], args[1]); err != nil {
			return err
		}

		st := s.controller.State()
		fmt.Printf("appended %s @ %s (ledger now holds %d trades)\n", args[0], args[1], len(st.Trades))
		if st.RefreshErr != "" {
			fmt.Printf("warning: post-confirmation refresh failed: %s\n", st.RefreshErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
