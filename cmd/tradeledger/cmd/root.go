package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeledger/config"
)

var (
	cfgPath     string
	rpcURL      string
	keypairPath string
	logLevel    string
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "tradeledger",
	Short: "Client for the shared on-chain trade ledger",
	Long: `tradeledger appends trade records to a shared on-chain ledger account
and reads the full history back.

Records are (item, price, time) triples. The timestamp comes from the
network's block time at submission, so every client agrees on ordering.
The ledger is append-only: entries are never edited or removed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file (optional)")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "RPC endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&keypairPath, "keypair", "", "Keypair file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		zerolog.TimeFieldFormat = time.RFC3339
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    noColor,
		})

		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", logLevel)
		}
		zerolog.SetGlobalLevel(level)
		return nil
	}
}

// loadConfig loads the config file (or defaults) and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if rpcURL != "" {
		cfg.Network.RPCURL = rpcURL
	}
	if keypairPath != "" {
		cfg.Signer.KeypairPath = keypairPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
