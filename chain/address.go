// Package chain provides the thin clients the API handlers use to fetch data
// on a cache miss: a JSON-RPC client for the blockchain node and a REST
// client for the third-party indexing service, plus the input validators that
// gate every address-shaped parameter.
package chain

import (
	"fmt"
	"strings"

	"github.com/mumair738/airdrop-checker-sub011/errors"
)

// ValidateAddress checks that addr is a 0x-prefixed 40-hex-digit account
// address. It returns an invalid-class error so handlers can map it straight
// to a 400 response.
func ValidateAddress(addr string) error {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return errors.WrapInvalid(errors.ErrInvalidAddress, "chain", "ValidateAddress",
			fmt.Sprintf("expected 0x-prefixed 40 hex digits, got %q", addr))
	}
	for _, c := range addr[2:] {
		if !isHexDigit(c) {
			return errors.WrapInvalid(errors.ErrInvalidAddress, "chain", "ValidateAddress",
				fmt.Sprintf("non-hex character in %q", addr))
		}
	}
	return nil
}

// NormalizeAddress lowercases an address so cache keys derived from it are
// case-insensitive. Callers validate first.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}

// ValidateSymbol checks that sym looks like a token ticker: 1 to 12
// alphanumeric characters.
func ValidateSymbol(sym string) error {
	if len(sym) == 0 || len(sym) > 12 {
		return errors.WrapInvalid(errors.ErrInvalidData, "chain", "ValidateSymbol",
			fmt.Sprintf("symbol must be 1-12 characters, got %q", sym))
	}
	for _, c := range sym {
		if !isAlphaNumeric(c) {
			return errors.WrapInvalid(errors.ErrInvalidData, "chain", "ValidateSymbol",
				fmt.Sprintf("non-alphanumeric character in %q", sym))
		}
	}
	return nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlphaNumeric(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
