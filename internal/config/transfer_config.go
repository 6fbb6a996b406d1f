package config

import (
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/wallet/ledger"
)

const (
	// DefaultChainID is Sepolia.
	DefaultChainID             int64  = 11155111
	DefaultGasLimit            uint64 = 100000
	DefaultRPCTimeout                 = 30 * time.Second
	DefaultReceiptPollInterval        = 3 * time.Second
	DefaultEnvFile                    = ".env"
)

// Environment variable names.
const (
	EnvRPCURL              = "RPC_URL"
	EnvPrivateKey          = "PRIVATE_KEY"
	EnvKeystorePath        = "KEYSTORE_PATH"
	EnvDerivationPath      = "DERIVATION_PATH"
	EnvRecipient           = "RECIPIENT"
	EnvAmount              = "AMOUNT"
	EnvToken               = "ERC20_TOKEN_ADDR"
	EnvChainID             = "CHAIN_ID"
	EnvGasLimit            = "GAS_LIMIT"
	EnvRPCTimeout          = "RPC_TIMEOUT"
	EnvWaitReceipt         = "WAIT_RECEIPT"
	EnvReceiptPollInterval = "RECEIPT_POLL_INTERVAL"
	EnvMetricsTextfile     = "METRICS_TEXTFILE"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogPretty           = "LOG_PRETTY_PRINT_CONSOLE"
)

// ErrConfig is returned when a required value is missing or malformed.
var ErrConfig = errors.New("invalid configuration")

// Key selects where the signing key comes from. Exactly one of PrivateKey
// or KeystorePath is set.
type Key struct {
	PrivateKey     string `json:"-"`
	KeystorePath   string `json:"keystorePath,omitempty"`
	DerivationPath string `json:"derivationPath,omitempty"`
}

// UsesKeystore reports whether the key is derived from a keystore.
func (k Key) UsesKeystore() bool {
	return k.KeystorePath != ""
}

// Node describes how to reach the chain.
type Node struct {
	RPCURLs    []string      `json:"rpcUrls"`
	ChainID    *big.Int      `json:"chainId"`
	RPCTimeout time.Duration `json:"rpcTimeout"`
}

// Transfer is the complete configuration of a single token transfer.
type Transfer struct {
	Node
	Key

	Recipient           common.Address    `json:"recipient"`
	Token               common.Address    `json:"token"`
	Amount              *big.Int          `json:"amount"`
	GasLimit            uint64            `json:"gasLimit"`
	WaitReceipt         bool              `json:"waitReceipt"`
	ReceiptPollInterval time.Duration     `json:"receiptPollInterval"`
	MetricsTextfile     string            `json:"metricsTextfile,omitempty"`
	Logger              util.LoggerConfig `json:"logger"`
}

// NewViper loads envFile into the process environment when it exists and
// returns a viper instance reading the environment with defaults set.
func NewViper(envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := gotenv.Load(envFile); err != nil {
				return nil, errors.Wrapf(ErrConfig, "failed to load %s: %v", envFile, err)
			}
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvChainID, DefaultChainID)
	v.SetDefault(EnvGasLimit, DefaultGasLimit)
	v.SetDefault(EnvRPCTimeout, DefaultRPCTimeout)
	v.SetDefault(EnvReceiptPollInterval, DefaultReceiptPollInterval)
	v.SetDefault(EnvWaitReceipt, false)
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvLogPretty, false)

	return v, nil
}

// LoadLogger reads the logger settings.
func LoadLogger(v *viper.Viper) (util.LoggerConfig, error) {
	level, err := util.ParseLogLevel(v.GetString(EnvLogLevel))
	if err != nil {
		return util.LoggerConfig{}, errors.Wrap(ErrConfig, err.Error())
	}

	pretty, err := parseBool(v, EnvLogPretty)
	if err != nil {
		return util.LoggerConfig{}, err
	}

	return util.LoggerConfig{Level: level, PrettyPrintConsole: pretty}, nil
}

// LoadKey reads and checks the key source.
func LoadKey(v *viper.Viper) (Key, error) {
	key := Key{
		PrivateKey:     strings.TrimSpace(v.GetString(EnvPrivateKey)),
		KeystorePath:   strings.TrimSpace(v.GetString(EnvKeystorePath)),
		DerivationPath: strings.TrimSpace(v.GetString(EnvDerivationPath)),
	}

	switch {
	case key.PrivateKey != "" && key.KeystorePath != "":
		return Key{}, errors.Wrapf(ErrConfig, "%s and %s are mutually exclusive", EnvPrivateKey, EnvKeystorePath)
	case key.PrivateKey == "" && key.KeystorePath == "":
		return Key{}, errors.Wrapf(ErrConfig, "one of %s or %s is required", EnvPrivateKey, EnvKeystorePath)
	case key.KeystorePath != "" && key.DerivationPath == "":
		return Key{}, errors.Wrapf(ErrConfig, "%s is required with %s", EnvDerivationPath, EnvKeystorePath)
	}

	return key, nil
}

// LoadNode reads the node endpoints, chain id and timeout.
func LoadNode(v *viper.Viper) (Node, error) {
	urls := ledger.ParseRPCURLs(v.GetString(EnvRPCURL))
	if len(urls) == 0 {
		return Node{}, missing(EnvRPCURL)
	}

	chainID, err := parseUint(v, EnvChainID)
	if err != nil {
		return Node{}, err
	}
	if chainID.Sign() == 0 {
		return Node{}, errors.Wrapf(ErrConfig, "%s must be positive", EnvChainID)
	}

	timeout, err := parseDuration(v, EnvRPCTimeout)
	if err != nil {
		return Node{}, err
	}

	return Node{RPCURLs: urls, ChainID: chainID, RPCTimeout: timeout}, nil
}

// LoadTransfer reads and validates the full transfer configuration. It
// fails with ErrConfig before any network or cryptographic work happens.
func LoadTransfer(v *viper.Viper) (*Transfer, error) {
	node, err := LoadNode(v)
	if err != nil {
		return nil, err
	}

	key, err := LoadKey(v)
	if err != nil {
		return nil, err
	}

	recipient, err := parseAddress(v, EnvRecipient)
	if err != nil {
		return nil, err
	}

	token, err := LoadToken(v)
	if err != nil {
		return nil, err
	}

	amount, err := parseUint(v, EnvAmount)
	if err != nil {
		return nil, err
	}

	gasLimit, err := parseUint(v, EnvGasLimit)
	if err != nil {
		return nil, err
	}
	if gasLimit.Sign() == 0 || !gasLimit.IsUint64() {
		return nil, errors.Wrapf(ErrConfig, "%s must be between 1 and 2^64-1", EnvGasLimit)
	}

	wait, err := parseBool(v, EnvWaitReceipt)
	if err != nil {
		return nil, err
	}

	poll, err := parseDuration(v, EnvReceiptPollInterval)
	if err != nil {
		return nil, err
	}

	logger, err := LoadLogger(v)
	if err != nil {
		return nil, err
	}

	return &Transfer{
		Node:                node,
		Key:                 key,
		Recipient:           recipient,
		Token:               token,
		Amount:              amount,
		GasLimit:            gasLimit.Uint64(),
		WaitReceipt:         wait,
		ReceiptPollInterval: poll,
		MetricsTextfile:     strings.TrimSpace(v.GetString(EnvMetricsTextfile)),
		Logger:              logger,
	}, nil
}

// LoadToken reads the ERC20 contract address.
func LoadToken(v *viper.Viper) (common.Address, error) {
	return parseAddress(v, EnvToken)
}

func missing(name string) error {
	return errors.Wrapf(ErrConfig, "%s is required", name)
}

// parseAddress accepts 40 hex digits with optional 0x prefix. Mixed case
// input must carry a valid EIP-55 checksum.
func parseAddress(v *viper.Viper, name string) (common.Address, error) {
	raw := strings.TrimSpace(v.GetString(name))
	if raw == "" {
		return common.Address{}, missing(name)
	}

	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.Wrapf(ErrConfig, "%s is not a 20-byte hex address", name)
	}

	addr := common.HexToAddress(raw)

	body := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex()[2:] != body {
		return common.Address{}, errors.Wrapf(ErrConfig, "%s has an invalid checksum", name)
	}

	return addr, nil
}

// parseUint parses a non-negative base 10 integer of any size.
func parseUint(v *viper.Viper, name string) (*big.Int, error) {
	raw := strings.TrimSpace(v.GetString(name))
	if raw == "" {
		return nil, missing(name)
	}

	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, errors.Wrapf(ErrConfig, "%s is not a decimal integer", name)
	}

	if value.Sign() < 0 {
		return nil, errors.Wrapf(ErrConfig, "%s must not be negative", name)
	}

	return value, nil
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(name))

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrConfig, "%s is not a duration: %v", name, err)
	}

	if d <= 0 {
		return 0, errors.Wrapf(ErrConfig, "%s must be positive", name)
	}

	return d, nil
}

func parseBool(v *viper.Viper, name string) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(v.GetString(name)))

	switch raw {
	case "", "0", "false", "no", "off":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	}

	return false, errors.Wrapf(ErrConfig, "%s is not a boolean", name)
}
