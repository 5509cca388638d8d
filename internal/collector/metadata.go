package collector

import "strings"

// TokenMetadata describes a token for display.
type TokenMetadata struct {
	Name    string
	Symbol  string
	LogoURL string
}

const tokenListAssets = "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/"

// KnownTokens holds metadata for well-known Solana mints.
var KnownTokens = map[string]TokenMetadata{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {
		Name:    "USD Coin",
		Symbol:  "USDC",
		LogoURL: tokenListAssets + "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v/logo.png",
	},
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {
		Name:    "Bonk",
		Symbol:  "BONK",
		LogoURL: tokenListAssets + "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263/logo.png",
	},
	"So11111111111111111111111111111111111111112": {
		Name:    "Wrapped SOL",
		Symbol:  "SOL",
		LogoURL: tokenListAssets + "So11111111111111111111111111111111111111112/logo.png",
	},
}

// USDCMint is the USDC mint address; placeholders pin it at $1.
const USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// Describe returns known metadata, or a generic name built from the address.
// Lookup is case-insensitive because some upstreams lowercase mint addresses.
func Describe(address string) TokenMetadata {
	if md, ok := KnownTokens[address]; ok {
		return md
	}
	for mint, md := range KnownTokens {
		if strings.EqualFold(mint, address) {
			return md
		}
	}
	prefix := address
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return TokenMetadata{Name: "Token " + prefix + "...", Symbol: "TOKEN"}
}
