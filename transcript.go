package snarkagg

import (
	"hash"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
)

type challenges struct {
	gamma, beta, alpha, zeta fr.Element
}

// deriveChallenges replays the prover's Fiat–Shamir transcript. The key and
// the public inputs are bound to γ ahead of the wire commitments.
func deriveChallenges(h hash.Hash, key *Vk, publics []fr.Element, proof *Proof) (ch challenges, err error) {
	fs := fiatshamir.NewTranscript(h, "gamma", "beta", "alpha", "zeta")
	for _, p := range append([]bls12381.G1Affine{key.S1, key.S2, key.S3, key.QL, key.QR, key.QM, key.QO, key.QK}, key.QC...) {
		if err = fs.Bind("gamma", p.Marshal()); err != nil {
			return
		}
	}
	for i := range publics {
		if err = fs.Bind("gamma", publics[i].Marshal()); err != nil {
			return
		}
	}
	if ch.gamma, err = derive(fs, "gamma", proof.CW1, proof.CW2, proof.CW3); err != nil {
		return
	}
	if ch.beta, err = derive(fs, "beta"); err != nil {
		return
	}
	if ch.alpha, err = derive(fs, "alpha", append(append([]bls12381.G1Affine{}, proof.BSB...), proof.CPZ)...); err != nil {
		return
	}
	ch.zeta, err = derive(fs, "zeta", proof.CH1, proof.CH2, proof.CH3)
	return
}

func derive(fs *fiatshamir.Transcript, id string, points ...bls12381.G1Affine) (r fr.Element, err error) {
	for i := range points {
		if err = fs.Bind(id, points[i].Marshal()); err != nil {
			return
		}
	}
	b, err := fs.ComputeChallenge(id)
	if err != nil {
		return
	}
	r.SetBytes(b)
	return
}

// publicTerm evaluates PI(ζ) = Σ wᵢLᵢ(ζ) over the public inputs and the
// hashed BSB22 commitments, with Lᵢ(ζ) = ωⁱ/n·(ζⁿ-1)/(ζ-ωⁱ).
func publicTerm(key *Vk, proof *Proof, publics []fr.Element, zeta, zh, generator fr.Element, htf hash.Hash) fr.Element {
	var pi, tmp, wi, sizeinv fr.Element
	sizeinv.SetUint64(key.Size()).Inverse(&sizeinv)
	lagrange := func(w fr.Element) fr.Element {
		var l fr.Element
		return *l.Sub(&zeta, &w).Inverse(&l).Mul(&l, &zh).Mul(&l, &sizeinv).Mul(&l, &w)
	}
	wi.SetOne()
	for i := range publics {
		l := lagrange(wi)
		pi.Add(&pi, tmp.Mul(&l, &publics[i]))
		wi.Mul(&wi, &generator)
	}
	nb := min(htf.Size(), fr.Bytes)
	for i := range key.CI {
		htf.Reset()
		htf.Write(proof.BSB[i].Marshal())
		hashed := htf.Sum(nil)
		tmp.SetBytes(hashed[:nb])
		wi.Exp(generator, big.NewInt(int64(key.NP)+int64(key.CI[i])))
		l := lagrange(wi)
		pi.Add(&pi, tmp.Mul(&tmp, &l))
	}
	return pi
}
