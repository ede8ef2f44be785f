// Package commit implements the salted answer commitment: a field-native
// sponge hash over Stark field elements plus salt generation. The same
// parameters are baked into the on-chain verifier, so any change here is a
// consensus break with deployed contracts.
package commit

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"kibi-puzzle/internal/felt"
)

// Permutation parameters. 91 rounds of x^5 over the Stark prime, constants
// derived from SHA-256 of the seed and round index so every implementation
// regenerates the identical schedule.
const (
	hashRounds = 91
	hashSeed   = "kibi.commitment.v1"
)

var (
	five           = big.NewInt(5)
	roundConstants = deriveConstants()
)

// deriveConstants builds the round constant schedule. Constant 0 is zero;
// the rest are SHA-256(seed || round) reduced into the field.
func deriveConstants() []*big.Int {
	p := felt.Modulus()
	cs := make([]*big.Int, hashRounds)
	cs[0] = new(big.Int)
	for i := 1; i < hashRounds; i++ {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(i))
		sum := sha256.Sum256(append([]byte(hashSeed), buf[:]...))
		cs[i] = new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), p)
	}
	return cs
}

// permute applies the keyed round function to x under key k.
func permute(x, k *big.Int) *big.Int {
	p := felt.Modulus()
	t := new(big.Int)
	r := new(big.Int).Set(x)
	for i := 0; i < hashRounds; i++ {
		t.Add(r, k)
		t.Add(t, roundConstants[i])
		t.Mod(t, p)
		r.Exp(t, five, p)
	}
	return r.Add(r, k).Mod(r, p)
}

// Hash absorbs the given field elements into a Miyaguchi-Preneel sponge and
// returns the digest. Deterministic: equal inputs yield equal digests across
// processes, which is what lets independent verifiers agree on a commitment.
func Hash(elems ...*big.Int) *big.Int {
	p := felt.Modulus()
	h := new(big.Int)
	for _, x := range elems {
		h.Add(h, permute(x, h))
		h.Add(h, x)
		h.Mod(h, p)
	}
	return h
}
