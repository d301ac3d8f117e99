package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ecodine/ecodine/networks"
	"github.com/ecodine/ecodine/wallet"
)

const (
	WalletURLEnv = "ECODINE_WALLET_URL"
	ContractEnv  = "ECODINE_CONTRACT"

	FlagNetwork       = "network"
	FlagWallet        = "wallet"
	FlagContract      = "contract"
	FlagKeystore      = "keystore"
	FlagPrivateKeyEnv = "private-key-env"
	FlagConfig        = "config"
	FlagLogLevel      = "log-level"
	FlagLogFile       = "log-file"
	FlagPollInterval  = "poll-interval"

	DefaultWalletURL = "http://127.0.0.1:8545"
	DefaultLogLevel  = "warn"
)

var (
	Network       string
	WalletURL     string
	Contract      string
	Keystore      string
	PrivateKeyEnv string
	ConfigFile    string
	LogLevel      string
	LogFile       string
	PollInterval  time.Duration
)

var (
	Search     string
	WithEth    bool
	DishName   string
	DishPrice  string
	Component  string
	Credits    uint64
	Inactive   bool
	WatchLimit time.Duration
)

// File is the on-disk configuration. Empty fields leave the flag defaults
// alone.
type File struct {
	Network       string        `yaml:"network"`
	Wallet        string        `yaml:"wallet"`
	Contract      string        `yaml:"contract"`
	Keystore      string        `yaml:"keystore"`
	PrivateKeyEnv string        `yaml:"private_key_env"`
	LogLevel      string        `yaml:"log_level"`
	LogFile       string        `yaml:"log_file"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ecodine", "config.yaml")
}

// Load reads the YAML file at path. A missing file yields an error wrapping
// os.ErrNotExist.
func Load(path string) (File, error) {
	f := File{}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("open config: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return f, nil
}

// Resolve fills every setting whose flag was not given on the command line.
// Precedence is flag, then environment, then config file, then the flag
// default. The file is optional unless it was named with --config.
func Resolve(changed func(flag string) bool, getenv func(string) string) error {
	path := ConfigFile
	explicit := changed(FlagConfig) && path != ""
	if path == "" {
		path = DefaultPath()
	}
	f := File{}
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			f = loaded
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return err
		}
	}

	pick := func(flag string, target *string, env string, fromFile string) {
		if changed(flag) {
			return
		}
		if env != "" {
			if v := strings.TrimSpace(getenv(env)); v != "" {
				*target = v
				return
			}
		}
		if fromFile != "" {
			*target = fromFile
		}
	}
	pick(FlagNetwork, &Network, "", f.Network)
	pick(FlagWallet, &WalletURL, WalletURLEnv, f.Wallet)
	pick(FlagContract, &Contract, ContractEnv, f.Contract)
	pick(FlagKeystore, &Keystore, "", f.Keystore)
	pick(FlagPrivateKeyEnv, &PrivateKeyEnv, "", f.PrivateKeyEnv)
	pick(FlagLogLevel, &LogLevel, "", f.LogLevel)
	pick(FlagLogFile, &LogFile, "", f.LogFile)
	if !changed(FlagPollInterval) && f.PollInterval > 0 {
		PollInterval = f.PollInterval
	}
	return Validate()
}

// Current captures the resolved settings in file form.
func Current() File {
	return File{
		Network:       Network,
		Wallet:        WalletURL,
		Contract:      Contract,
		Keystore:      Keystore,
		PrivateKeyEnv: PrivateKeyEnv,
		LogLevel:      LogLevel,
		LogFile:       LogFile,
		PollInterval:  PollInterval,
	}
}

// Save writes f to path, creating the parent directory.
func Save(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func Validate() error {
	if _, err := networks.GetNetwork(Network); err != nil {
		return err
	}
	if PollInterval < 0 {
		return fmt.Errorf("poll interval can't be negative")
	}
	if Keystore != "" && PrivateKeyEnv != "" {
		return fmt.Errorf("use either --%s or --%s, not both", FlagKeystore, FlagPrivateKeyEnv)
	}
	return nil
}

// Reset restores the flag defaults. Used by tests.
func Reset() {
	Network = networks.Default().GetName()
	WalletURL = DefaultWalletURL
	Contract = ""
	Keystore = ""
	PrivateKeyEnv = ""
	ConfigFile = ""
	LogLevel = DefaultLogLevel
	LogFile = ""
	PollInterval = wallet.DefaultPollInterval
}
