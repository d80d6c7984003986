package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradeledger/chain"
	"github.com/rustyeddy/tradeledger/client"
	"github.com/rustyeddy/tradeledger/config"
	"github.com/rustyeddy/tradeledger/journal"
	"github.com/rustyeddy/tradeledger/ledger"
	"github.com/rustyeddy/tradeledger/signer"
	"github.com/rustyeddy/tradeledger/submit"
)

// session bundles everything a command needs, plus the cleanup for it.
type session struct {
	controller *client.Controller
	journal    journal.Journal
	keypair    *signer.Keypair
}

func (s *session) Close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			log.Warn().Err(err).Msg("close journal")
		}
	}
}

// newSession assembles the chain client, ledger service, signer, pipeline and
// controller from config. A missing keypair is not an error: read-only
// commands still work and submissions fail fast with a signer error.
func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	reqTimeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	confirmTimeout, err := cfg.ConfirmTimeout()
	if err != nil {
		return nil, err
	}
	pollInterval, err := cfg.PollInterval()
	if err != nil {
		return nil, err
	}
	programID, err := cfg.ProgramID()
	if err != nil {
		return nil, err
	}
	ledgerAddr, err := cfg.LedgerAddress()
	if err != nil {
		return nil, err
	}

	rpc := chain.NewClient(cfg.Network.RPCURL,
		chain.WithTimeout(reqTimeout),
		chain.WithLogger(log.Logger),
	)

	var kp *signer.Keypair
	if cfg.Signer.KeypairPath != "" {
		kp, err = signer.Load(cfg.Signer.KeypairPath, rpc)
		if err != nil {
			return nil, fmt.Errorf("load keypair: %w", err)
		}
		log.Debug().Str("pubkey", kp.PublicKey().String()).Msg("keypair loaded")
	}

	var jnl journal.Journal
	switch cfg.Journal.Type {
	case "sqlite":
		jnl, err = journal.NewSQLite(cfg.Journal.Path)
	case "csv":
		jnl, err = journal.NewCSV(cfg.Journal.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	pipeline := submit.NewPipeline(rpc,
		submit.WithConfirmTimeout(confirmTimeout),
		submit.WithPollInterval(pollInterval),
		submit.WithLogger(log.Logger),
	)

	params := client.Params{
		Reader:        ledger.NewService(rpc, ledgerAddr),
		Time:          rpc,
		Pipeline:      pipeline,
		ProgramID:     programID,
		LedgerAddress: ledgerAddr,
		Journal:       jnl,
		Logger:        &log.Logger,
	}
	if kp != nil {
		params.Signer = kp
	}

	ctl, err := client.New(ctx, params)
	if err != nil {
		if jnl != nil {
			jnl.Close()
		}
		return nil, err
	}

	return &session{controller: ctl, journal: jnl, keypair: kp}, nil
}
