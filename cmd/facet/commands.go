package main

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/aliasing"
	"github.com/polymerdao/facet/gascost"
	"github.com/polymerdao/facet/submit"
	"github.com/polymerdao/facet/tracker"
	"github.com/polymerdao/facet/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	toFlag        = "to"
	dataFlag      = "data"
	valueFlag     = "value"
	extraDataFlag = "extra-data"
	waitFlag      = "wait"
	mintRateFlag  = "mint-rate"
)

func aliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias <l1-address>",
		Short: "Print the L2 alias of an L1 address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aliased, err := aliasing.Alias(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), aliased)
			return nil
		},
	}
}

func unaliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unalias <l2-address>",
		Short: "Print the L1 address an L2 alias stands for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unaliased, err := aliasing.Unalias(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), unaliased)
			return nil
		},
	}
}

func costCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "cost <hex-data>",
		Short: "Print the calldata cost of a byte string under the configured regime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			regime, err := gascost.ParseRegime(v.GetString(regimeFlag))
			if err != nil {
				return err
			}
			accountant, err := gascost.NewAccountant(regime)
			if err != nil {
				return err
			}
			data, err := parseData(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), accountant.Cost(data))
			return nil
		},
	}
}

func mintRateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "mint-rate",
		Short: "Print the current L2 mint rate",
		Args:  cobra.NoArgs,
		RunE: withSession(v, func(ctx context.Context, cmd *cobra.Command, s *session, _ []string) error {
			rate, err := s.l2.FctMintRate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rate)
			return nil
		}),
	}
}

func hashCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <l1-tx-hash>",
		Short: "Derive the facet transaction hash of an inbox transaction already on L1",
		Long: "Derive the facet transaction hash of an inbox transaction already on L1.\n" +
			"The mint is part of the hash, so --" + mintRateFlag + " must be the rate in force when the transaction was included. " +
			"Without it the current rate is used.",
		Args: cobra.ExactArgs(1),
		RunE: withSession(v, func(ctx context.Context, cmd *cobra.Command, s *session, args []string) error {
			l1Hash, err := parseHash(args[0])
			if err != nil {
				return err
			}
			rate, err := mintRate(ctx, v, s)
			if err != nil {
				return err
			}
			accountant, err := gascost.NewAccountant(s.cfg.submit.Regime)
			if err != nil {
				return err
			}
			resolution, err := submit.NewResolver(s.l1, accountant).FacetHashFromL1Hash(ctx, l1Hash, rate)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "facet hash:  %s\n", resolution.FacetTransactionHash)
			fmt.Fprintf(w, "from:        %s\n", resolution.Deposit.From)
			fmt.Fprintf(w, "mint:        %s\n", resolution.Accounting.MintAmount)
			if url := s.network.ExplorerTxURL(resolution.FacetTransactionHash); url != "" {
				fmt.Fprintf(w, "explorer:    %s\n", url)
			}
			return nil
		}),
	}
	cmd.Flags().String(mintRateFlag, "", "Mint rate to price the transaction at")
	return cmd
}

func mintRate(ctx context.Context, v *viper.Viper, s *session) (*big.Int, error) {
	raw := v.GetString(mintRateFlag)
	if raw == "" {
		s.logger.Warn("Using the current mint rate, the hash is wrong if the rate changed since inclusion")
		return s.l2.FctMintRate(ctx)
	}
	rate, ok := math.ParseBig256(raw)
	if !ok {
		return nil, fmt.Errorf("invalid mint rate %q", raw)
	}
	return rate, nil
}

func trackCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "track <facet-tx-hash>",
		Short: "Wait for a facet transaction to be included on L2",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(v, func(ctx context.Context, cmd *cobra.Command, s *session, args []string) error {
			hash, err := parseHash(args[0])
			if err != nil {
				return err
			}
			return track(ctx, cmd.OutOrStdout(), s, hash, func(tracker.Status) error { return nil })
		}),
	}
}

// track prints every status of hash and hands it to observe. It fails if the transaction did.
func track(ctx context.Context, w io.Writer, s *session, hash common.Hash, observe func(tracker.Status) error) error {
	t, err := s.tracker()
	if err != nil {
		return err
	}
	var final tracker.Status
	for status := range t.Watch(ctx, hash) {
		fmt.Fprintf(w, "%s: %s\n", status.TransactionHash(), status)
		if err := observe(status); err != nil {
			return err
		}
		final = status
	}
	if failure, ok := final.(tracker.Failure); ok {
		return failure.Err
	}
	return nil
}

func sendCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a transaction to L2 through the L1 inbox",
		Long: "Send a transaction to L2 through the L1 inbox.\n" +
			"A non-zero --" + valueFlag + " is paid from the account's L2 WETH balance when it covers it, " +
			"and bridged in from L1 otherwise.",
		Args: cobra.NoArgs,
		RunE: withSession(v, func(ctx context.Context, cmd *cobra.Command, s *session, _ []string) error {
			params, err := parseParams(v)
			if err != nil {
				return err
			}
			submitter, err := s.submitter()
			if err != nil {
				return err
			}
			result, err := submitter.Dispatch(ctx, params)
			if err != nil {
				return err
			}
			return report(ctx, cmd.OutOrStdout(), v, s, result)
		}),
	}
	cmd.Flags().String(toFlag, "", "L2 recipient. Empty creates a contract.")
	cmd.Flags().String(dataFlag, "", "Hex calldata")
	addValueFlags(cmd)
	return cmd
}

func writeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <method-signature> [args...]",
		Short: "Call an L2 contract method through the L1 inbox",
		Example: `  facet write --to 0x... "transfer(address,uint256)" 0x... 1000
  facet write --to 0x... --value 1000000000000000 "deposit()"`,
		Args: cobra.MinimumNArgs(1),
		RunE: withSession(v, func(ctx context.Context, cmd *cobra.Command, s *session, args []string) error {
			contractABI, method, err := parseMethod(args[0])
			if err != nil {
				return err
			}
			callArgs, err := parseArgs(contractABI.Methods[method].Inputs, args[1:])
			if err != nil {
				return err
			}
			params, err := parseParams(v)
			if err != nil {
				return err
			}
			if params.To == nil {
				return fmt.Errorf("--%s is required", toFlag)
			}
			submitter, err := s.submitter()
			if err != nil {
				return err
			}
			result, err := submitter.WriteContract(ctx, &submit.WriteParams{
				To:        *params.To,
				ABI:       contractABI,
				Method:    method,
				Args:      callArgs,
				Value:     params.Value,
				ExtraData: params.ExtraData,
			})
			if err != nil {
				return err
			}
			return report(ctx, cmd.OutOrStdout(), v, s, result)
		}),
	}
	cmd.Flags().String(toFlag, "", "L2 contract address")
	addValueFlags(cmd)
	return cmd
}

func addValueFlags(cmd *cobra.Command) {
	cmd.Flags().String(valueFlag, "0", "Value in wei")
	cmd.Flags().String(extraDataFlag, "", "Hex bytes appended to the envelope to raise the mint")
	cmd.Flags().Bool(waitFlag, false, "Wait for the L2 receipt")
}

func parseParams(v *viper.Viper) (*facet.TransactionParams, error) {
	to, err := optionalAddress(v.GetString(toFlag))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", toFlag, err)
	}
	data, err := parseData(v.GetString(dataFlag))
	if err != nil {
		return nil, fmt.Errorf("--%s: %v", dataFlag, err)
	}
	extraData, err := parseData(v.GetString(extraDataFlag))
	if err != nil {
		return nil, fmt.Errorf("--%s: %v", extraDataFlag, err)
	}
	value, ok := math.ParseBig256(v.GetString(valueFlag))
	if !ok {
		return nil, fmt.Errorf("--%s: invalid amount %q", valueFlag, v.GetString(valueFlag))
	}
	params := &facet.TransactionParams{
		Data:      data,
		Value:     value,
		ExtraData: extraData,
	}
	if to != (common.Address{}) {
		params.To = utils.Ptr(to)
	}
	return params, nil
}

func parseData(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return nil, nil
	}
	return hexutil.Decode(s)
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse hash %q: %v", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hash %q is %d bytes, want %d", s, len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}

func report(ctx context.Context, w io.Writer, v *viper.Viper, s *session, result *submit.Result) error {
	fmt.Fprintf(w, "strategy:    %s\n", result.Strategy)
	fmt.Fprintf(w, "l1 hash:     %s\n", result.L1TransactionHash)
	fmt.Fprintf(w, "facet hash:  %s\n", result.FacetTransactionHash)
	fmt.Fprintf(w, "mint:        %s\n", result.Accounting.MintAmount)
	if result.ExplorerURL != "" {
		fmt.Fprintf(w, "explorer:    %s\n", result.ExplorerURL)
	}
	if !v.GetBool(waitFlag) {
		return nil
	}
	return track(ctx, w, s, result.FacetTransactionHash, func(status tracker.Status) error {
		if err := result.Observe(status); err != nil {
			return err
		}
		s.logger.Debug("Stage changed", "facet_hash", result.FacetTransactionHash, "stage", result.Stage)
		return nil
	})
}
