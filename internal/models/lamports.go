package models

import (
	"fmt"
	"strings"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL uint64 = 1_000_000_000

// FormatSOL renders lamports as SOL without trailing zeros
func FormatSOL(lamports uint64) string {
	whole := lamports / LamportsPerSOL
	frac := lamports % LamportsPerSOL
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%09d", whole, frac), "0")
}
