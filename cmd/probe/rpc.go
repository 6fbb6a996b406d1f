package probe

import (
	"context"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/util/command"
	"github/chapool/erc20-sender/internal/wallet/ledger"
)

var (
	ErrChainMismatch = errors.New("node reports a different chain id")
	ErrNoHealthyNode = errors.New("no healthy node")
)

func newRPC() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpc",
		Short: "Checks every configured RPC endpoint",
		Long: `Checks every endpoint in RPC_URL for reachability and the configured CHAIN_ID.

Fails if any reachable endpoint reports a different chain id or no endpoint
is reachable at all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithViper(cmd, func(ctx context.Context, v *viper.Viper) error {
				return runRPC(ctx, cmd, v)
			})
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show gas price of each endpoint")

	return cmd
}

func runRPC(ctx context.Context, cmd *cobra.Command, v *viper.Viper) error {
	node, err := config.LoadNode(v)
	if err != nil {
		return err
	}

	verbose, err := cmd.Flags().GetBool(verboseFlag)
	if err != nil {
		return err
	}

	log := util.LogFromContext(ctx)
	out := cmd.OutOrStdout()
	healthy := 0

	for _, url := range node.RPCURLs {
		chainID, gasPrice, err := probeEndpoint(ctx, url, node)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Endpoint unavailable")
			fmt.Fprintf(out, "%s: unavailable\n", url)
			continue
		}

		if chainID.Cmp(node.ChainID) != 0 {
			return errors.Wrapf(ErrChainMismatch, "%s reports %s, expected %s", url, chainID, node.ChainID)
		}

		healthy++
		if verbose {
			fmt.Fprintf(out, "%s: ok (chain %s, gas price %s wei)\n", url, chainID, gasPrice)
		} else {
			fmt.Fprintf(out, "%s: ok\n", url)
		}
	}

	if healthy == 0 {
		return ErrNoHealthyNode
	}

	return nil
}

func probeEndpoint(ctx context.Context, url string, node config.Node) (chainID, gasPrice *big.Int, err error) {
	client, err := ledger.NewRPCClient([]string{url}, ledger.WithCallTimeout(node.RPCTimeout))
	if err != nil {
		return nil, nil, err
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return nil, nil, err
	}

	price, err := client.GetGasPrice(ctx)
	if err != nil {
		return nil, nil, err
	}

	return id, price, nil
}
