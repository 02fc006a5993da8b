package util

import (
	"regexp"
	"strings"
)

var walletRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func IsValidWallet(s string) bool {
	return walletRegex.MatchString(s)
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}

// NormalizeCode strips whitespace a player may paste around a code.
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// NormalizeWallet lowercases an address so every store keys a wallet one way.
func NormalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}
