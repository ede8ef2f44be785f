package commit

import (
	"fmt"

	"kibi-puzzle/internal/felt"
)

// Commitment binds an answer to a salt. Hash alone reveals nothing about the
// answer; anyone holding the salt can later verify a claimed answer.
// The plaintext answer is never part of a Commitment.
type Commitment struct {
	Hash string // 0x-prefixed felt
	Salt string // 0x-prefixed felt
}

// Generate encodes the answer, draws a fresh random salt and returns the
// commitment Hash(encode(answer), salt). Fails with errs.ErrEncoding when the
// answer cannot be encoded; no partial commitment is produced.
func Generate(answer string) (Commitment, error) {
	encoded, err := felt.Encode(answer)
	if err != nil {
		return Commitment{}, err
	}
	salt, err := felt.Random()
	if err != nil {
		return Commitment{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	return Commitment{
		Hash: felt.Hex(Hash(encoded, salt)),
		Salt: felt.Hex(salt),
	}, nil
}

// Verify re-derives the commitment for a claimed answer and salt and compares
// it to the expected hash. Used as a cheap local pre-check; the chain remains
// the authoritative verifier.
func Verify(answer, saltHex, expectedHex string) (bool, error) {
	encoded, err := felt.Encode(answer)
	if err != nil {
		return false, err
	}
	salt, err := felt.FromHex(saltHex)
	if err != nil {
		return false, fmt.Errorf("invalid salt: %w", err)
	}
	expected, err := felt.FromHex(expectedHex)
	if err != nil {
		return false, fmt.Errorf("invalid commitment: %w", err)
	}
	return Hash(encoded, salt).Cmp(expected) == 0, nil
}
