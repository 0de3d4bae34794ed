// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ID    = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// IsToken2022 reports whether a mint's owner program supports extensions
// (and therefore may carry a transfer-fee schedule).
func IsToken2022(program solana.PublicKey) bool {
	return program.Equals(Token2022ID)
}
