package commit

import (
	"math/big"
	"testing"

	"pgregory.net/rapid"

	"kibi-puzzle/internal/felt"
)

// TestCommitmentBindingProperty checks that for any pair of distinct answers
// with independently drawn salts, the commitments do not collide, and that a
// commitment always re-verifies with its own answer and salt.
func TestCommitmentBindingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		answerA := rapid.StringMatching(`[a-z0-9]{1,20}`).Draw(t, "answerA")
		answerB := rapid.StringMatching(`[a-z0-9]{1,20}`).Draw(t, "answerB")

		ca, err := Generate(answerA)
		if err != nil {
			t.Fatalf("generate %q: %v", answerA, err)
		}
		cb, err := Generate(answerB)
		if err != nil {
			t.Fatalf("generate %q: %v", answerB, err)
		}

		ok, err := Verify(answerA, ca.Salt, ca.Hash)
		if err != nil || !ok {
			t.Fatalf("commitment for %q failed self-verification: %v", answerA, err)
		}

		// Independent salts make equal hashes vanishingly unlikely even for
		// equal answers; any collision here is a real defect.
		if ca.Hash == cb.Hash {
			t.Fatalf("commitment collision: %q and %q both hash to %s", answerA, answerB, ca.Hash)
		}

		if answerA != answerB {
			ok, err := Verify(answerB, ca.Salt, ca.Hash)
			if err != nil {
				t.Fatalf("cross-verify error: %v", err)
			}
			if ok {
				t.Fatalf("%q verified against commitment for %q", answerB, answerA)
			}
		}
	})
}

// TestHashDeterminismProperty checks that the sponge is a pure function of
// its inputs for arbitrary field elements.
func TestHashDeterminismProperty(t *testing.T) {
	p := felt.Modulus()
	rapid.Check(t, func(t *rapid.T) {
		x := new(big.Int).Mod(new(big.Int).SetUint64(rapid.Uint64().Draw(t, "x")), p)
		y := new(big.Int).Mod(new(big.Int).SetUint64(rapid.Uint64().Draw(t, "y")), p)

		first := Hash(x, y)
		if first.Cmp(Hash(x, y)) != 0 {
			t.Fatalf("hash not deterministic for x=%s y=%s", x, y)
		}
		if first.Cmp(p) >= 0 || first.Sign() < 0 {
			t.Fatalf("digest %s out of field range", first)
		}
	})
}
