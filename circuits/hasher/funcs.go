// native (off-circuit) Poseidon2 helpers
package hasher

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Compress returns perm([x,y])[1] + y.
func Compress(x, y fr.Element) fr.Element {
	vars := [2]fr.Element{x, y}
	if err := GetPermutation().Permutation(vars[:]); err != nil {
		// width is fixed to WIDTH, the permutation cannot reject the buffer
		panic(err)
	}
	var ret fr.Element
	ret.Add(&vars[1], &y)
	return ret
}

// Sum folds val with Compress(acc, v) starting from zero.
func Sum(val ...fr.Element) fr.Element {
	var ret fr.Element
	for _, v := range val {
		ret = Compress(ret, v)
	}
	return ret
}

// decompose splits a base field element modulo r: v = q*r + m.
func decompose(v fp.Element) (q, m fr.Element) {
	var iq, im big.Int
	v.BigInt(&iq)
	iq.DivMod(&iq, fr.Modulus(), &im)
	q.SetBigInt(&iq)
	m.SetBigInt(&im)
	return
}

// DecomposeG1 splits the affine coordinates of val modulo r:
// X = xq*r + xm, Y = yq*r + ym. The output order is [[xq,xm],[yq,ym]].
func DecomposeG1(val bls12381.G1Affine) [2][2]fr.Element {
	xq, xm := decompose(val.X)
	yq, ym := decompose(val.Y)
	return [2][2]fr.Element{{xq, xm}, {yq, ym}}
}

// HashG1 = Compress(Compress(xq,xm), Compress(yq,ym)).
func HashG1(val bls12381.G1Affine) fr.Element {
	d := DecomposeG1(val)
	x := Compress(d[0][0], d[0][1])
	y := Compress(d[1][0], d[1][1])
	return Compress(x, y)
}

// HashG2 chains the compressed halves of X.A0, X.A1, Y.A0 and Y.A1.
// It is only computed natively.
func HashG2(val bls12381.G2Affine) fr.Element {
	var ret fr.Element
	for _, c := range []fp.Element{val.X.A0, val.X.A1, val.Y.A0, val.Y.A1} {
		q, m := decompose(c)
		ret = Compress(ret, Compress(q, m))
	}
	return ret
}

// Uints lifts small integers (sizes and indexes) into the field.
func Uints(vals ...uint64) []fr.Element {
	ret := make([]fr.Element, len(vals))
	for i := range vals {
		ret[i].SetUint64(vals[i])
	}
	return ret
}
