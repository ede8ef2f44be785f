// Package felt implements encoding of answer strings into elements of the
// Stark prime field. Commitments are computed over field elements so the
// on-chain verifier can check the same hash with its native arithmetic.
package felt

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"kibi-puzzle/internal/errs"
)

// MaxEncodedLen is the byte capacity of a short-string field element.
// 31 bytes keeps the encoded value strictly below the 252-bit modulus.
const MaxEncodedLen = 31

// modulus is the Stark field prime: 2^251 + 17*2^192 + 1.
var modulus, _ = new(big.Int).SetString(
	"800000000000011000000000000000000000000000000000000000000000001", 16)

// Modulus returns a copy of the field modulus.
func Modulus() *big.Int {
	return new(big.Int).Set(modulus)
}

// Normalize lower-cases and trims an answer string. Encode applies it
// internally; verifiers use it so independently computed commitments match.
func Normalize(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// Encode maps an answer string to a field element: the normalized string's
// bytes interpreted as a big-endian integer. Deterministic across processes.
// Returns errs.ErrEncoding for empty input or input beyond MaxEncodedLen bytes.
func Encode(answer string) (*big.Int, error) {
	s := Normalize(answer)
	if s == "" {
		return nil, fmt.Errorf("empty answer: %w", errs.ErrEncoding)
	}
	if len(s) > MaxEncodedLen {
		return nil, fmt.Errorf("answer is %d bytes, max %d: %w", len(s), MaxEncodedLen, errs.ErrEncoding)
	}
	return new(big.Int).SetBytes([]byte(s)), nil
}

// Hex formats a field element as a 0x-prefixed lowercase hex string,
// the wire format shared with the chain collaborator.
func Hex(x *big.Int) string {
	return "0x" + x.Text(16)
}

// FromHex parses a 0x-prefixed hex string into a field element.
// Values at or above the modulus are rejected.
func FromHex(s string) (*big.Int, error) {
	raw, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return nil, fmt.Errorf("missing 0x prefix in %q: %w", s, errs.ErrEncoding)
	}
	x, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex %q: %w", s, errs.ErrEncoding)
	}
	if x.Sign() < 0 || x.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("value out of field range: %w", errs.ErrEncoding)
	}
	return x, nil
}

// Random draws a uniform field element from crypto/rand. Used for salts;
// the full 252-bit range makes the salt infeasible to search.
func Random() (*big.Int, error) {
	x, err := rand.Int(rand.Reader, modulus)
	if err != nil {
		return nil, fmt.Errorf("failed to draw random field element: %w", err)
	}
	return x, nil
}
