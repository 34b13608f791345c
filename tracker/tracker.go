// Package tracker follows an L2 facet transaction from submission to a terminal status.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/mclock"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/metrics"
	"github.com/polymerdao/facet/utils"
)

type Config struct {
	// PollInterval is the time between receipt lookups.
	PollInterval time.Duration
	// Timeout bounds the time from the first lookup to giving up.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 12 * time.Second,
		Timeout:      60 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.Timeout < c.PollInterval {
		return fmt.Errorf("timeout %s is shorter than the poll interval %s", c.Timeout, c.PollInterval)
	}
	return nil
}

type ReceiptSource interface {
	// TransactionReceipt returns ethereum.NotFound until the transaction is included.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error)
}

type Tracker struct {
	cfg     Config
	l2      ReceiptSource
	clock   mclock.Clock
	network *facet.Network
	metrics metrics.SubmitMetrics
	logger  log.Logger
}

func New(
	cfg Config,
	l2 ReceiptSource,
	clock mclock.Clock,
	network *facet.Network,
	m metrics.SubmitMetrics,
	logger log.Logger,
) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate tracker config: %v", err)
	}
	return &Tracker{
		cfg:     cfg,
		l2:      l2,
		clock:   clock,
		network: network,
		metrics: m,
		logger:  logger.With("component", "tracker"),
	}, nil
}

// Track emits Pending, then polls for the receipt of hash until it is found or the timeout elapses,
// and emits exactly one terminal status, which it also returns.
// Lookup errors other than ethereum.NotFound are logged and polling continues.
// Cancelling ctx ends tracking with a Failure wrapping facet.ErrTransactionTimeout.
func (t *Tracker) Track(ctx context.Context, hash common.Hash, emit func(Status)) Status {
	explorerURL := t.network.ExplorerTxURL(hash)
	emit(Pending{TxHash: hash, ExplorerURL: explorerURL})

	start := t.clock.Now()
	status := t.poll(ctx, hash, explorerURL, start)
	emit(status)

	elapsed := time.Duration(t.clock.Now() - start)
	t.metrics.RecordConfirmation(status.String(), elapsed)
	switch s := status.(type) {
	case Success:
		t.logger.Info("L2 transaction confirmed", "hash", hash, "block", s.Receipt.BlockNumber, "elapsed", elapsed)
	case Failure:
		t.logger.Error("L2 transaction failed", "hash", hash, "err", s.Err, "elapsed", elapsed)
	}
	return status
}

// Watch runs Track in a goroutine. The channel receives every status and is closed after the terminal one.
func (t *Tracker) Watch(ctx context.Context, hash common.Hash) <-chan Status {
	statuses := make(chan Status, 2)
	go func() {
		defer close(statuses)
		t.Track(ctx, hash, func(s Status) {
			statuses <- s
		})
	}()
	return statuses
}

func (t *Tracker) poll(ctx context.Context, hash common.Hash, explorerURL string, start mclock.AbsTime) Status {
	for {
		receipt, err := t.l2.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == ethtypes.ReceiptStatusSuccessful {
				return Success{TxHash: hash, ExplorerURL: explorerURL, Receipt: receipt}
			}
			return Failure{
				TxHash:      hash,
				ExplorerURL: explorerURL,
				Err:         facet.WrapError(facet.ErrTransactionReverted, "receipt status %d in block %s", receipt.Status, receipt.BlockNumber),
			}
		case errors.Is(err, ethereum.NotFound):
			t.logger.Debug("Receipt not found yet", "hash", hash)
		default:
			t.logger.Warn("Failed to get receipt", "hash", hash, "err", err)
		}

		elapsed := time.Duration(t.clock.Now() - start)
		if elapsed >= t.cfg.Timeout {
			return Failure{
				TxHash:      hash,
				ExplorerURL: explorerURL,
				Err:         facet.WrapError(facet.ErrTransactionTimeout, "no receipt after %s", elapsed),
			}
		}

		wait := min(t.cfg.PollInterval, t.cfg.Timeout-elapsed)
		select {
		case <-t.clock.After(wait):
		case <-ctx.Done():
			reason := ctx.Err()
			if cause := utils.Cause(ctx); cause != nil {
				reason = cause
			}
			return Failure{
				TxHash:      hash,
				ExplorerURL: explorerURL,
				Err:         facet.WrapError(facet.ErrTransactionTimeout, "tracking cancelled: %v", reason),
			}
		}
	}
}
