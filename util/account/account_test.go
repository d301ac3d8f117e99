package account_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodine/ecodine/util/account"
)

const testKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestPrivateKeyAccountSigns(t *testing.T) {
	acc, err := account.NewPrivateKeyAccount(testKey)
	require.NoError(t, err)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", acc.AddressHex())

	to := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    3,
		GasPrice: big.NewInt(1e9),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1),
	})
	chainID := big.NewInt(23413)
	signed, err := acc.SignTx(tx, chainID)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, acc.Address(), sender)
}

func TestKeystoreAccount(t *testing.T) {
	_, key, err := account.PrivateKeyFromHex(testKey)
	require.NoError(t, err)

	encrypted, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, "secret", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(file, encrypted, 0600))

	acc, err := account.NewKeystoreAccount(file, "secret")
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), acc.Address())

	_, err = account.NewKeystoreAccount(file, "wrong")
	assert.Error(t, err)
}

func TestInvalidPrivateKey(t *testing.T) {
	_, err := account.NewPrivateKeyAccount("0x1234")
	assert.Error(t, err)
}
