package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/mclock"
	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/client"
	"github.com/polymerdao/facet/environment"
	"github.com/polymerdao/facet/gascost"
	"github.com/polymerdao/facet/metrics"
	"github.com/polymerdao/facet/signer"
	"github.com/polymerdao/facet/submit"
	"github.com/polymerdao/facet/tracker"
	"github.com/polymerdao/facet/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix        = "FACET"
	metricsNamespace = "facet"

	l1RPCFlag          = "l1-rpc"
	l2RPCFlag          = "l2-rpc"
	privateKeyFlag     = "private-key"
	mnemonicFlag       = "mnemonic"
	derivationPathFlag = "derivation-path"
	etherBridgeFlag    = "ether-bridge"
	buddyFactoryFlag   = "buddy-factory"
	wethFlag           = "weth"
	regimeFlag         = "regime"
	gasMultiplierFlag  = "gas-multiplier"
	bridgeGasLimitFlag = "bridge-gas-limit"
	pollIntervalFlag   = "poll-interval"
	timeoutFlag        = "timeout"
	metricsAddrFlag    = "metrics-addr"
	logLevelFlag       = "log-level"
	logJSONFlag        = "log-json"
)

// newViper reads every flag from FACET_-prefixed environment variables as well.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func rootCmd() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:          "facet",
		Short:        "facet sends L2 transactions through the L1 inbox",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}

	submitDefaults := submit.DefaultConfig()
	trackerDefaults := tracker.DefaultConfig()
	flags := cmd.PersistentFlags()
	flags.String(l1RPCFlag, "", "L1 JSON-RPC endpoint")
	flags.String(l2RPCFlag, "", "L2 JSON-RPC endpoint (default: the network's public endpoint)")
	flags.String(privateKeyFlag, "", "Hex private key of the L1 account")
	flags.String(mnemonicFlag, "", "BIP-39 mnemonic of the L1 account")
	flags.String(derivationPathFlag, signer.DefaultDerivationPath, "HD derivation path used with --"+mnemonicFlag)
	flags.String(etherBridgeFlag, "", "L1 ether bridge address")
	flags.String(buddyFactoryFlag, "", "L2 buddy factory address")
	flags.String(wethFlag, "", "L2 WETH address")
	flags.String(regimeFlag, submitDefaults.Regime.String(), "Calldata cost regime used for the mint (simple or floor)")
	flags.Float64(gasMultiplierFlag, submitDefaults.GasMultiplier, "Multiplier applied to the L1 gas estimate")
	flags.Uint64(bridgeGasLimitFlag, submitDefaults.BridgeGasLimit, "L2 gas limit of bridge-and-call transactions")
	flags.Duration(pollIntervalFlag, trackerDefaults.PollInterval, "Time between L2 receipt lookups")
	flags.Duration(timeoutFlag, trackerDefaults.Timeout, "Time to wait for an L2 receipt")
	flags.String(metricsAddrFlag, "", "Serve prometheus metrics on this address. Empty disables it.")
	flags.String(logLevelFlag, "info", "Log level")
	flags.Bool(logJSONFlag, false, "Log in JSON")

	cmd.AddCommand(
		aliasCmd(),
		unaliasCmd(),
		costCmd(v),
		mintRateCmd(v),
		hashCmd(v),
		trackCmd(v),
		sendCmd(v),
		writeCmd(v),
	)
	return cmd
}

type config struct {
	l1RPC       string
	l2RPC       string
	contracts   facet.ContractAddresses
	submit      submit.Config
	tracker     tracker.Config
	metricsAddr string
}

func loadConfig(v *viper.Viper) (*config, error) {
	regime, err := gascost.ParseRegime(v.GetString(regimeFlag))
	if err != nil {
		return nil, err
	}
	cfg := &config{
		l1RPC: v.GetString(l1RPCFlag),
		l2RPC: v.GetString(l2RPCFlag),
		submit: submit.Config{
			GasMultiplier:  v.GetFloat64(gasMultiplierFlag),
			BridgeGasLimit: v.GetUint64(bridgeGasLimitFlag),
			Regime:         regime,
		},
		tracker: tracker.Config{
			PollInterval: v.GetDuration(pollIntervalFlag),
			Timeout:      v.GetDuration(timeoutFlag),
		},
		metricsAddr: v.GetString(metricsAddrFlag),
	}
	if cfg.l1RPC == "" {
		return nil, fmt.Errorf("--%s is required", l1RPCFlag)
	}
	for flag, addr := range map[string]*common.Address{
		etherBridgeFlag:  &cfg.contracts.EtherBridge,
		buddyFactoryFlag: &cfg.contracts.BuddyFactory,
		wethFlag:         &cfg.contracts.WETH,
	} {
		if *addr, err = optionalAddress(v.GetString(flag)); err != nil {
			return nil, fmt.Errorf("--%s: %w", flag, err)
		}
	}
	if err := cfg.submit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.tracker.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func optionalAddress(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, facet.WrapError(facet.ErrInvalidAddress, "%q", s)
	}
	return common.HexToAddress(s), nil
}

// session holds the connections shared by the commands that talk to a network.
type session struct {
	cfg           *config
	v             *viper.Viper
	network       *facet.Network
	l1            *client.L1Client
	l2            *client.L2Client
	submitMetrics metrics.SubmitMetrics
	logger        ethlog.Logger
}

// withSession connects to L1 and L2 before running fn, and tears everything down after it returns.
func withSession(v *viper.Viper, fn func(ctx context.Context, cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx, cancel := context.WithCancel(cmd.Context())
		env := environment.New()
		defer func() {
			cancel()
			err = utils.RunAndWrapOnError(err, "close environment", env.Close)
		}()

		s, err := connect(ctx, env, v)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, s, args)
	}
}

func connect(ctx context.Context, env *environment.Env, v *viper.Viper) (*session, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(os.Stderr, v.GetString(logLevelFlag), v.GetBool(logJSONFlag))
	if err != nil {
		return nil, err
	}

	if cfg.metricsAddr != "" {
		listener, err := net.Listen("tcp", cfg.metricsAddr)
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %v", cfg.metricsAddr, err)
		}
		server := metrics.NewServer(prometheus.DefaultGatherer, prometheus.DefaultRegisterer, listener)
		env.Go(func() {
			if err := server.Run(ctx); err != nil {
				logger.Error("Metrics server stopped", "err", err)
			}
		})
		logger.Info("Serving metrics", "addr", listener.Addr())
	}

	l1, err := client.DialL1(ctx, cfg.l1RPC, metrics.NewClientMetrics(metricsNamespace, metrics.L1Subsystem))
	if err != nil {
		return nil, err
	}
	env.Defer(l1.Close)
	l1ChainID, err := l1.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get l1 chain id: %v", err)
	}
	if !l1ChainID.IsUint64() {
		return nil, facet.WrapError(facet.ErrInvalidChain, "l1 chain id %s", l1ChainID)
	}
	network, err := facet.NetworkForL1(facet.ChainID(l1ChainID.Uint64()))
	if err != nil {
		return nil, err
	}
	network = network.WithContracts(cfg.contracts)

	l2URL := cfg.l2RPC
	if l2URL == "" {
		l2URL = network.L2RPC
	}
	l2, err := client.DialL2(ctx, l2URL, metrics.NewClientMetrics(metricsNamespace, metrics.L2Subsystem))
	if err != nil {
		return nil, err
	}
	env.Defer(l2.Close)
	l2ChainID, err := l2.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get l2 chain id: %v", err)
	}
	if !l2ChainID.IsUint64() || facet.ChainID(l2ChainID.Uint64()) != network.L2ChainID {
		return nil, facet.WrapError(facet.ErrInvalidChain, "%s is chain %s, %s needs %s", l2URL, l2ChainID, network.Name, network.L2ChainID)
	}
	logger.Debug("Connected", "network", network.Name, "l1_chain_id", network.L1ChainID, "l2_chain_id", network.L2ChainID)

	return &session{
		cfg:           cfg,
		v:             v,
		network:       network,
		l1:            l1,
		l2:            l2,
		submitMetrics: metrics.NewSubmitMetrics(prometheus.DefaultRegisterer, metricsNamespace),
		logger:        logger,
	}, nil
}

func (s *session) signer() (*signer.KeyedSigner, error) {
	chainID := s.network.L1ChainID.Big()
	backend := s.l1.Ethclient()
	if key := s.v.GetString(privateKeyFlag); key != "" {
		return signer.FromHexKey(key, chainID, backend)
	}
	if mnemonic := s.v.GetString(mnemonicFlag); mnemonic != "" {
		return signer.FromMnemonic(mnemonic, s.v.GetString(derivationPathFlag), chainID, backend)
	}
	return nil, facet.WrapError(facet.ErrNoAccount, "set --%s or --%s", privateKeyFlag, mnemonicFlag)
}

func (s *session) submitter() (*submit.Submitter, error) {
	keyed, err := s.signer()
	if err != nil {
		return nil, err
	}
	return submit.New(s.cfg.submit, s.network, s.l1, s.l2, keyed, s.submitMetrics, s.logger)
}

func (s *session) tracker() (*tracker.Tracker, error) {
	return tracker.New(s.cfg.tracker, s.l2, mclock.System{}, s.network, s.submitMetrics, s.logger)
}
