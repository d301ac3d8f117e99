package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func flags(names ...string) func(string) bool {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
network: sapphire-testnet
wallet: http://localhost:9545
contract: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
poll_interval: 5s
log_level: debug
`)
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sapphire-testnet", f.Network)
	assert.Equal(t, "http://localhost:9545", f.Wallet)
	assert.Equal(t, 5*time.Second, f.PollInterval)
	assert.Equal(t, "debug", f.LogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "network: [oops"))
	assert.Error(t, err)
}

func TestResolvePrecedence(t *testing.T) {
	t.Cleanup(Reset)
	Reset()
	ConfigFile = writeFile(t, `
wallet: http://from-file:8545
contract: "0x00000000000000000000000000000000000000aa"
log_level: info
poll_interval: 7s
`)
	LogLevel = "error"

	err := Resolve(
		flags(FlagConfig, FlagLogLevel),
		env(map[string]string{ContractEnv: "0x00000000000000000000000000000000000000bb"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:8545", WalletURL, "file over default")
	assert.Equal(t, "0x00000000000000000000000000000000000000bb", Contract, "env over file")
	assert.Equal(t, "error", LogLevel, "flag over file")
	assert.Equal(t, 7*time.Second, PollInterval)
}

func TestResolveMissingFile(t *testing.T) {
	t.Cleanup(Reset)
	Reset()
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Resolve(flags(), env(nil)), "default path is optional")
	assert.Equal(t, DefaultWalletURL, WalletURL)

	ConfigFile = filepath.Join(t.TempDir(), "nope.yaml")
	assert.ErrorIs(t, Resolve(flags(FlagConfig), env(nil)), os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	t.Cleanup(Reset)
	Reset()
	require.NoError(t, Validate())

	Network = "moonbase"
	assert.Error(t, Validate())

	Reset()
	Keystore = "/tmp/key.json"
	PrivateKeyEnv = "ECODINE_KEY"
	assert.Error(t, Validate())
}

func TestSaveThenLoad(t *testing.T) {
	t.Cleanup(Reset)
	Reset()
	Contract = "0x00000000000000000000000000000000000000aa"
	PollInterval = 3 * time.Second

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(path, Current()))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Current(), f)
}
