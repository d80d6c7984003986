package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeledger/journal"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print locally journaled submission attempts",
	Long: `Print the local submission journal, newest first.

Unlike 'list', which shows the on-chain ledger, this includes attempts that
were rejected or timed out. Requires a csv or sqlite journal in config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var jnl journal.Journal
		switch cfg.Journal.Type {
		case "sqlite":
			jnl, err = journal.NewSQLite(cfg.Journal.Path)
		case "csv":
			jnl, err = journal.NewCSV(cfg.Journal.Path)
		default:
			return fmt.Errorf("no journal configured (journal.type is %q)", cfg.Journal.Type)
		}
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jnl.Close()

		recs, err := jnl.ListSubmissions(historyLimit)
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}
		if len(recs) == 0 {
			fmt.Println("no journaled submissions")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ATTEMPT\tITEM\tPRICE\tSTATE\tTX\tSUBMITTED")
		for _, r := range recs {
			tx := r.TxID
			if tx == "" {
				tx = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.AttemptID, r.Item, r.Price, r.State, tx,
				r.SubmittedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum records to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
