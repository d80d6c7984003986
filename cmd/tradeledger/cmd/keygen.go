package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeledger/signer"
)

var keygenOut string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing keypair file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(keygenOut); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", keygenOut)
		}

		kp, err := signer.Generate(nil)
		if err != nil {
			return err
		}
		if err := kp.Save(keygenOut); err != nil {
			return err
		}

		fmt.Printf("wrote %s\npubkey: %s\n", keygenOut, kp.PublicKey())
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenOut, "out", "o", "./tradeledger-keypair.json", "Output file")
	rootCmd.AddCommand(keygenCmd)
}
