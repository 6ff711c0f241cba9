// Package sample holds small application circuits used to produce records
// for the CLI and for tests.
package sample

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/eon-protocol/snarkagg/circuits/hasher"
)

// Product proves X*Y*Z == W. X is also committed, so keys and proofs carry
// one BSB22 commitment.
type Product struct {
	X frontend.Variable `gnark:",public"`
	Y frontend.Variable `gnark:",public"`
	Z frontend.Variable `gnark:",public"`
	W frontend.Variable `gnark:",public"`
}

func (me *Product) Define(api frontend.API) error {
	prod := api.Mul(me.X, me.Y, me.Z)
	api.AssertIsEqual(prod, me.W)
	_, err := api.(frontend.Committer).Commit(me.X)
	return err
}

func NewProduct(x, y, z uint64) *Product {
	var w fr.Element
	w.SetUint64(x).Mul(&w, new(fr.Element).SetUint64(y)).Mul(&w, new(fr.Element).SetUint64(z))
	return &Product{X: x, Y: y, Z: z, W: w.BigInt(new(big.Int))}
}

// Preimage proves knowledge of Secret with Poseidon2 Sum(Secret) == Digest.
type Preimage struct {
	Secret frontend.Variable
	Digest frontend.Variable `gnark:",public"`
}

func (me *Preimage) Define(api frontend.API) error {
	h, err := hasher.NewHasher(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(h.Sum(me.Secret), me.Digest)
	return nil
}

func NewPreimage(secret uint64) *Preimage {
	var s fr.Element
	s.SetUint64(secret)
	d := hasher.Sum(s)
	return &Preimage{Secret: secret, Digest: d.BigInt(new(big.Int))}
}
