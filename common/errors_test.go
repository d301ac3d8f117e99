package common_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecodine/ecodine/common"
)

type codedError struct {
	code int
	msg  string
}

func (e codedError) Error() string  { return e.msg }
func (e codedError) ErrorCode() int { return e.code }

func TestClassifyTxError(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{codedError{4001, "User denied transaction signature"}, common.ErrUserRejected},
		{errors.New("user rejected transaction"), common.ErrUserRejected},
		{errors.New("insufficient funds for gas * price + value"), common.ErrInsufficientFunds},
		{errors.New("gas required exceeds allowance (30000000)"), common.ErrGasEstimation},
		{errors.New("execution reverted: Dish not active"), common.ErrReverted},
		{errors.New("connection reset"), common.ErrTransactionFailure},
	}
	for _, c := range cases {
		got := common.ClassifyTxError(c.err)
		assert.ErrorIs(t, got, c.want, c.err.Error())
		assert.ErrorIs(t, got, c.err)
	}
	assert.NoError(t, common.ClassifyTxError(nil))
}

func TestClassifiedFailuresAreTransactionFailures(t *testing.T) {
	for _, err := range []error{common.ErrInsufficientFunds, common.ErrGasEstimation, common.ErrReverted} {
		assert.ErrorIs(t, err, common.ErrTransactionFailure)
	}
}

func TestErrorCode(t *testing.T) {
	code, ok := common.ErrorCode(fmt.Errorf("switch: %w", codedError{4902, "unrecognized chain"}))
	assert.True(t, ok)
	assert.Equal(t, common.CodeUnknownChain, code)

	_, ok = common.ErrorCode(errors.New("plain"))
	assert.False(t, ok)
	assert.True(t, common.IsMethodNotFound(codedError{-32601, "the method eth_accounts does not exist"}))
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, common.UserMessage(common.ErrExtensionMissing), "install")
	assert.Equal(t, "Transaction was rejected.", common.UserMessage(codedError{4001, "denied"}))
	assert.Contains(t, common.UserMessage(common.ClassifyTxError(errors.New("insufficient funds"))), "Insufficient funds")
	assert.Equal(t, "", common.UserMessage(nil))
}
