// Package hasher provides the Poseidon2 hash (t=2) used for key identifiers
// and batch digests, both natively and as a gnark gadget over BLS12-381.
package hasher

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/poseidon2"
	"github.com/consensys/gnark/frontend"
)

var ErrInvalidSizebuffer = errors.New("the size of the input should match the size of the hash buffer")

// Hasher is the in-circuit counterpart of Compress and Sum.
type Hasher struct {
	api       frontend.API
	degree    int
	nbFull    int
	nbPartial int
	roundKeys [][]big.Int
}

// NewHasher reads the round keys from the seeded gnark-crypto parameters so
// the gadget and GetPermutation agree.
func NewHasher(api frontend.API) (*Hasher, error) {
	params := poseidon2.NewParametersWithSeed(WIDTH, ROUND_FULL, ROUND_PARTIAL, SEED)
	h := &Hasher{
		api:       api,
		degree:    poseidon2.DegreeSBox(),
		nbFull:    ROUND_FULL,
		nbPartial: ROUND_PARTIAL,
		roundKeys: make([][]big.Int, len(params.RoundKeys)),
	}
	switch h.degree {
	case 3, 5, 7:
	default:
		return nil, errors.New("unsupported sBox degree")
	}
	for i := range h.roundKeys {
		h.roundKeys[i] = make([]big.Int, len(params.RoundKeys[i]))
		for j := range h.roundKeys[i] {
			params.RoundKeys[i][j].BigInt(&h.roundKeys[i][j])
		}
	}
	return h, nil
}

func (h *Hasher) sBox(x frontend.Variable) frontend.Variable {
	x2 := h.api.Mul(x, x)
	switch h.degree {
	case 3:
		return h.api.Mul(x2, x)
	case 5:
		return h.api.Mul(h.api.Mul(x2, x2), x)
	default:
		x3 := h.api.Mul(x2, x)
		return h.api.Mul(h.api.Mul(x3, x3), x)
	}
}

// external matrix for t=2 is circ(2,1)
func (h *Hasher) external(s []frontend.Variable) {
	tmp := h.api.Add(s[0], s[1])
	s[0] = h.api.Add(tmp, s[0])
	s[1] = h.api.Add(tmp, s[1])
}

// internal matrix for t=2 is [[2,1],[1,3]]
func (h *Hasher) internal(s []frontend.Variable) {
	sum := h.api.Add(s[0], s[1])
	s[0] = h.api.Add(s[0], sum)
	s[1] = h.api.Add(h.api.Mul(2, s[1]), sum)
}

func (h *Hasher) addRoundKey(round int, s []frontend.Variable) {
	for i := range h.roundKeys[round] {
		s[i] = h.api.Add(s[i], h.roundKeys[round][i])
	}
}

// Permutation applies Poseidon2 in place.
func (h *Hasher) Permutation(s []frontend.Variable) error {
	if len(s) != WIDTH {
		return ErrInvalidSizebuffer
	}
	h.external(s)
	rf := h.nbFull / 2
	for i := 0; i < rf; i++ {
		h.addRoundKey(i, s)
		for j := range s {
			s[j] = h.sBox(s[j])
		}
		h.external(s)
	}
	for i := rf; i < rf+h.nbPartial; i++ {
		h.addRoundKey(i, s)
		s[0] = h.sBox(s[0])
		h.internal(s)
	}
	for i := rf + h.nbPartial; i < h.nbFull+h.nbPartial; i++ {
		h.addRoundKey(i, s)
		for j := range s {
			s[j] = h.sBox(s[j])
		}
		h.external(s)
	}
	return nil
}

// Compress returns perm([left,right])[1] + right.
func (h *Hasher) Compress(left, right frontend.Variable) frontend.Variable {
	s := [WIDTH]frontend.Variable{left, right}
	if err := h.Permutation(s[:]); err != nil {
		panic(err)
	}
	return h.api.Add(s[1], right)
}

// Sum folds vals from zero, matching the native Sum.
func (h *Hasher) Sum(vals ...frontend.Variable) frontend.Variable {
	var acc frontend.Variable = 0
	for i := range vals {
		acc = h.Compress(acc, vals[i])
	}
	return acc
}
