package snarkagg

import (
	"errors"
	"hash"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"

	"github.com/eon-protocol/snarkagg/circuits/hasher"
)

// Accumulator is a pair of G1 points standing for the pending pairing check
// e(Left, [1]₂) = e(Right, [τ]₂).
type Accumulator struct {
	Left, Right bls12381.G1Affine
}

// CommitmentScheme reduces KZG openings to an Accumulator.
type CommitmentScheme interface {
	// Fold merges openings of several digests at one point.
	Fold(digests []kzg.Digest, proof *kzg.BatchOpeningProof, point fr.Element, hf hash.Hash, transcript ...[]byte) (kzg.OpeningProof, kzg.Digest, error)
	// Accumulate combines openings at distinct points.
	Accumulate(digests []kzg.Digest, proofs []kzg.OpeningProof, points []fr.Element, vk kzg.VerifyingKey) (Accumulator, error)
}

// PairingEngine settles an Accumulator.
type PairingEngine interface {
	Check(acc Accumulator, vk kzg.VerifyingKey) (bool, error)
}

var errOpeningCount = errors.New("number of digests, proofs and points differ")

// KZG is the default scheme and engine: MSM folding with random
// coefficients and a pairing against the precomputed lines of the key.
type KZG struct{}

func (KZG) Fold(digests []kzg.Digest, proof *kzg.BatchOpeningProof, point fr.Element, hf hash.Hash, transcript ...[]byte) (kzg.OpeningProof, kzg.Digest, error) {
	return kzg.FoldProof(digests, proof, point, hf, transcript...)
}

func (KZG) Accumulate(digests []kzg.Digest, proofs []kzg.OpeningProof, points []fr.Element, vk kzg.VerifyingKey) (acc Accumulator, err error) {
	if len(digests) != len(proofs) || len(digests) != len(points) || len(digests) == 0 {
		return acc, errOpeningCount
	}
	lambda := make([]fr.Element, len(digests))
	lambda[0].SetOne()
	for i := 1; i < len(lambda); i++ {
		if _, err = lambda[i].SetRandom(); err != nil {
			return
		}
	}
	return accumulate(digests, proofs, points, lambda, vk)
}

// accumulate computes
//
//	Left  = Σλᵢ(Cᵢ - yᵢ[1]₁ + zᵢHᵢ)
//	Right = ΣλᵢHᵢ
func accumulate(digests []kzg.Digest, proofs []kzg.OpeningProof, points []fr.Element, lambda []fr.Element, vk kzg.VerifyingKey) (acc Accumulator, err error) {
	quotients := make([]bls12381.G1Affine, len(proofs))
	lz := make([]fr.Element, len(proofs))
	var ly, tmp fr.Element
	for i := range proofs {
		quotients[i] = proofs[i].H
		lz[i].Mul(&lambda[i], &points[i])
		ly.Add(&ly, tmp.Mul(&lambda[i], &proofs[i].ClaimedValue))
	}
	if _, err = acc.Right.MultiExp(quotients, lambda, ecc.MultiExpConfig{}); err != nil {
		return
	}
	var cs, zh, y bls12381.G1Affine
	if _, err = cs.MultiExp(digests, lambda, ecc.MultiExpConfig{}); err != nil {
		return
	}
	if _, err = zh.MultiExp(quotients, lz, ecc.MultiExpConfig{}); err != nil {
		return
	}
	y.ScalarMultiplication(&vk.G1, ly.BigInt(new(big.Int)))
	acc.Left.Sub(&cs, &y).Add(&acc.Left, &zh)
	return
}

func (KZG) Check(acc Accumulator, vk kzg.VerifyingKey) (bool, error) {
	var right bls12381.G1Affine
	right.Neg(&acc.Right)
	var zero bls12381.LineEvaluationAff
	if vk.Lines[0][0][0] == zero {
		vk.Lines[0] = bls12381.PrecomputeLines(vk.G2[0])
		vk.Lines[1] = bls12381.PrecomputeLines(vk.G2[1])
	}
	return bls12381.PairingCheckFixedQ([]bls12381.G1Affine{acc.Left, right}, vk.Lines[:])
}

// ReferenceKZG computes the same relation point by point. The combination
// coefficients are powers of a Poseidon2 digest of the openings, so runs
// are reproducible.
type ReferenceKZG struct{}

func (ReferenceKZG) Fold(digests []kzg.Digest, proof *kzg.BatchOpeningProof, point fr.Element, hf hash.Hash, transcript ...[]byte) (kzg.OpeningProof, kzg.Digest, error) {
	return kzg.FoldProof(digests, proof, point, hf, transcript...)
}

func (ReferenceKZG) Accumulate(digests []kzg.Digest, proofs []kzg.OpeningProof, points []fr.Element, vk kzg.VerifyingKey) (acc Accumulator, err error) {
	if len(digests) != len(proofs) || len(digests) != len(points) || len(digests) == 0 {
		return acc, errOpeningCount
	}
	var vals []fr.Element
	for i := range digests {
		vals = append(vals, hasher.HashG1(digests[i]), hasher.HashG1(proofs[i].H), proofs[i].ClaimedValue, points[i])
	}
	r := hasher.Sum(vals...)
	var lambda fr.Element
	lambda.SetOne()
	for i := range digests {
		var c, y, q bls12381.G1Affine
		var s fr.Element
		var b big.Int
		c.ScalarMultiplication(&digests[i], lambda.BigInt(&b))
		y.ScalarMultiplication(&vk.G1, s.Mul(&lambda, &proofs[i].ClaimedValue).BigInt(&b))
		q.ScalarMultiplication(&proofs[i].H, s.Mul(&lambda, &points[i]).BigInt(&b))
		c.Sub(&c, &y).Add(&c, &q)
		acc.Left.Add(&acc.Left, &c)
		q.ScalarMultiplication(&proofs[i].H, lambda.BigInt(&b))
		acc.Right.Add(&acc.Right, &q)
		lambda.Mul(&lambda, &r)
	}
	return
}

func (ReferenceKZG) Check(acc Accumulator, vk kzg.VerifyingKey) (bool, error) {
	var right bls12381.G1Affine
	right.Neg(&acc.Right)
	return bls12381.PairingCheck([]bls12381.G1Affine{acc.Left, right}, []bls12381.G2Affine{vk.G2[0], vk.G2[1]})
}
