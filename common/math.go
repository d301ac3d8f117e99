package common

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// NativeDecimals is the number of decimals of the native currency of every
// supported network.
const NativeDecimals = 18

// DefaultDisplayDecimals is the number of fractional digits shown for native
// amounts when the caller has no preference.
const DefaultDisplayDecimals = 4

var (
	big1  = big.NewInt(1)
	big10 = big.NewInt(10)
)

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big10, big.NewInt(int64(n)), nil)
}

// ToDisplay converts a base unit amount to a decimal string rounded (half up)
// to decimalPlaces fractional digits. Trailing fractional zeros are dropped.
// Example:
// - ToDisplay(1500000000000000000, 4) = "1.5"
// - ToDisplay(123456789000000, 4) = "0.0001"
// - ToDisplay(nil, 4) = "0"
func ToDisplay(amount *big.Int, decimalPlaces int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	if decimalPlaces < 0 {
		decimalPlaces = 0
	}
	if decimalPlaces > NativeDecimals {
		decimalPlaces = NativeDecimals
	}

	abs := new(big.Int).Abs(amount)
	div := pow10(NativeDecimals - decimalPlaces)
	q, r := new(big.Int).QuoRem(abs, div, new(big.Int))
	if r.Lsh(r, 1).Cmp(div) >= 0 {
		q.Add(q, big1)
	}

	s := q.String()
	if decimalPlaces > 0 {
		if len(s) <= decimalPlaces {
			s = strings.Repeat("0", decimalPlaces-len(s)+1) + s
		}
		s = s[:len(s)-decimalPlaces] + "." + s[len(s)-decimalPlaces:]
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if amount.Sign() < 0 && s != "0" {
		s = "-" + s
	}
	return s
}

// ParseBaseUnits converts a decimal string such as "0.015" to base units.
// It rejects signs, exponents, more than 18 fractional digits and values that
// do not fit in 256 bits.
func ParseBaseUnits(value string) (*big.Int, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("amount %q has no digits", value)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("amount %q is not a plain decimal number", value)
	}
	if len(frac) > NativeDecimals {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", value, NativeDecimals)
	}

	digits := whole + frac + strings.Repeat("0", NativeDecimals-len(frac))
	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("couldn't parse amount %q", value)
	}
	if _, overflow := uint256.FromBig(result); overflow {
		return nil, fmt.Errorf("amount %q overflows 256 bits", value)
	}
	return result, nil
}

// ToBaseUnits is ParseBaseUnits for callers that treat a zero amount as
// "parse failed". It never returns nil.
func ToBaseUnits(value string) *big.Int {
	result, err := ParseBaseUnits(value)
	if err != nil {
		return big.NewInt(0)
	}
	return result
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// HexToChainID decodes a 0x-prefixed chain id as reported by wallets.
func HexToChainID(hex string) (uint64, error) {
	return hexutil.DecodeUint64(strings.ToLower(strings.TrimSpace(hex)))
}

// ChainIDToHex is the inverse of HexToChainID.
func ChainIDToHex(chainID uint64) string {
	return hexutil.EncodeUint64(chainID)
}
