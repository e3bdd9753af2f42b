package config

import (
	"strings"
)

// maskSecret keeps the first and last four characters of a secret and
// replaces the middle with asterisks. Short secrets are masked entirely.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) < 8 {
		return "***"
	}

	prefix := secret[:4]
	suffix := secret[len(secret)-4:]
	masked := strings.Repeat("*", len(secret)-8)

	return prefix + masked + suffix
}
