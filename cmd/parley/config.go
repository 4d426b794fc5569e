package main

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Config is the node configuration loaded from the YAML file.
type Config struct {
	// DBPath is the path of the bbolt database holding the chain state and
	// the message blobs.
	DBPath string `yaml:"db_path"`

	// KeyPath is the path of the private key file. A key is generated on
	// first use.
	KeyPath string `yaml:"key_path"`

	// PollInterval is the refresh interval of the watch command.
	PollInterval string `yaml:"poll_interval"`

	Genesis GenesisConfig `yaml:"genesis"`
}

// GenesisConfig holds the ledger parameters written by the init command.
type GenesisConfig struct {
	TotalSupply      uint64 `yaml:"total_supply"`
	DailyTokens      uint64 `yaml:"daily_tokens"`
	TokensPerMessage uint64 `yaml:"tokens_per_message"`
	BlocksPerClaim   uint64 `yaml:"blocks_per_claim"`
}

// defaultConfig holds the stock ledger parameters.
var defaultConfig = Config{
	DBPath:       "parley.db",
	KeyPath:      "parley.key",
	PollInterval: "2s",
	Genesis: GenesisConfig{
		TotalSupply:      1000000,
		DailyTokens:      12,
		TokensPerMessage: 3,
		BlocksPerClaim:   100,
	},
}

// loadConfig reads the configuration file when it exists, otherwise it
// returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}

	if err != nil {
		return cfg, xerrors.Errorf("while reading config: %v", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, xerrors.Errorf("while parsing config: %v", err)
	}

	return cfg, nil
}
