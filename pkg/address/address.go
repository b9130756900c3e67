// Package address validates and canonicalizes wallet addresses per chain family.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
	solcommon "github.com/portto/solana-go-sdk/common"
)

var (
	ErrEmpty         = errors.New("address is empty")
	ErrInvalidSolana = errors.New("invalid solana address")
	ErrInvalidEVM    = errors.New("invalid evm address")
	ErrUnknownFamily = errors.New("unknown chain family")
)

const (
	FamilySolana = "solana"
	FamilyEVM    = "evm"
)

// Solana decodes s as base58 and requires a 32-byte public key.
func Solana(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmpty
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSolana, err)
	}
	if len(raw) != solcommon.PublicKeyLength {
		return "", fmt.Errorf("%w: decoded %d bytes", ErrInvalidSolana, len(raw))
	}
	return solcommon.PublicKeyFromBytes(raw).ToBase58(), nil
}

// EVM validates a 0x-prefixed 20-byte hex address and returns its checksummed form.
func EVM(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmpty
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("%w: missing 0x prefix", ErrInvalidEVM)
	}
	if !common.IsHexAddress(s) {
		return "", ErrInvalidEVM
	}
	return common.HexToAddress(s).Hex(), nil
}

// Normalize dispatches on family ("solana" or "evm").
func Normalize(family, s string) (string, error) {
	switch family {
	case FamilySolana:
		return Solana(s)
	case FamilyEVM:
		return EVM(s)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
}

// Detect guesses the family from the address shape.
func Detect(s string) (string, bool) {
	if _, err := EVM(s); err == nil {
		return FamilyEVM, true
	}
	if _, err := Solana(s); err == nil {
		return FamilySolana, true
	}
	return "", false
}

// SameEVM compares two hex addresses ignoring checksum casing.
func SameEVM(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
