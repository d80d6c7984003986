package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the full trade ledger",
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

		st := s.controller.State()
		if st.RefreshErr != "" {
			return fmt.Errorf("refresh ledger: %s", st.RefreshErr)
		}

		if len(st.Trades) == 0 {
			fmt.Println("ledger is empty")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tITEM\tPRICE\tTIME")
		for i, t := range st.Trades {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, t.Item, t.Price, t.Time)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
