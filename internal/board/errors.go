package board

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidAddress  = errors.New("invalid token address")
	ErrDuplicateToken  = errors.New("token already on the board")
	ErrUnknownReaction = errors.New("unknown reaction")
	ErrTokenNotFound   = errors.New("token not found")
	ErrUnknownFilter   = errors.New("unknown filter")
)

// Solana mint addresses are base58, 32 to 44 characters.
var addressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// NormalizeAddress trims the address and checks its format.
func NormalizeAddress(address string) (string, error) {
	a := strings.TrimSpace(address)
	if !addressPattern.MatchString(a) {
		return "", ErrInvalidAddress
	}
	return a, nil
}
