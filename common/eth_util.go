package common

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// FormatAddress shortens an address for display: the first 6 characters,
// "..." and the last 4 characters.
func FormatAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func IsValidAddress(address string) bool {
	return common.IsHexAddress(strings.TrimSpace(address))
}

func HexToAddress(hex string) common.Address {
	return common.HexToAddress(hex)
}

// IsZeroAddress reports whether addr is the all zero address, which the
// contract returns for unknown restaurants.
func IsZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}
