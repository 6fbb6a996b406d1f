package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/erc20-sender/cmd/key"
	"github/chapool/erc20-sender/cmd/probe"
	"github/chapool/erc20-sender/cmd/receipt"
	"github/chapool/erc20-sender/cmd/transfer"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/util/command"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Builds, signs and submits ERC20 token transfers on Ethereum compatible chains.
Requires configuration through ENV or a .env file.`, config.ModuleName),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.PersistentFlags().String(command.EnvFileFlag, config.DefaultEnvFile, "dotenv file to load before reading the environment")

	// attach the subcommands
	rootCmd.AddCommand(
		key.NewAddress(),
		key.NewKeystore(),
		probe.New(),
		receipt.New(),
		transfer.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
