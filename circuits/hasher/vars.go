// Poseidon2 parameters shared by the native and in-circuit hashers.
package hasher

import (
	"crypto/sha256"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/poseidon2"
)

const WIDTH = 2
const ROUND_FULL = 8
const ROUND_PARTIAL = 56
const SEED = "SNARKAGG_POSEIDON2_HASH_SEED"

// GetPermutation returns the native permutation for the parameters above.
var GetPermutation = sync.OnceValue(func() *poseidon2.Permutation {
	return poseidon2.NewPermutationWithSeed(WIDTH, ROUND_FULL, ROUND_PARTIAL, SEED)
})

// Domain separators. Each one is the first word absorbed by a Sum, so a key
// identifier can never collide with a batch digest over the same words.
var (
	CID_KEY   = DomainTag("snarkagg.key.v1")
	CID_BATCH = DomainTag("snarkagg.batch.v1")
)

// DomainTag maps a label to a field element (sha256, reduced mod r).
func DomainTag(label string) fr.Element {
	sum := sha256.Sum256([]byte(label))
	var ret fr.Element
	ret.SetBytes(sum[:])
	return ret
}
