// Package recursion proves that a batch of PLONK proofs verifies, by running
// each verifier in-circuit and settling every KZG opening with one pairing.
package recursion

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bls12381"
	"github.com/consensys/gnark/std/commitments/kzg"
	"github.com/consensys/gnark/std/math/emulated"
	stdplonk "github.com/consensys/gnark/std/recursion/plonk"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/circuits/hasher"
)

type (
	FR   = sw_bls12381.ScalarField
	G1El = sw_bls12381.G1Affine
	G2El = sw_bls12381.G2Affine
	GtEl = sw_bls12381.GTEl
)

// Circuit verifies len(Keys) proofs, one per slot. The keys and the layout
// are compiled in as constants; Digest and Publics are the public inputs of
// the aggregate, in that order.
type Circuit struct {
	Proofs    []stdplonk.Proof[FR, G1El, G2El]
	Witnesses []stdplonk.Witness[FR]

	Keys   []stdplonk.VerifyingKey[FR, G1El, G2El] `gnark:"-"`
	Layout []frontend.Variable                     `gnark:"-"`

	Digest  frontend.Variable   `gnark:",public"`
	Publics []frontend.Variable `gnark:",public"`
}

func (me *Circuit) Define(api frontend.API) error {
	if len(me.Keys) == 0 || len(me.Keys) != len(me.Proofs) || len(me.Keys) != len(me.Witnesses) || len(me.Keys) != len(me.Layout) {
		return errors.New("slots, proofs and witnesses differ in number")
	}
	verifier, err := stdplonk.NewVerifier[FR, G1El, G2El, GtEl](api)
	if err != nil {
		return fmt.Errorf("new verifier: %w", err)
	}
	kzgVerifier, err := kzg.NewVerifier[FR, G1El, G2El, GtEl](api)
	if err != nil {
		return fmt.Errorf("new kzg verifier: %w", err)
	}
	scalarApi, err := emulated.NewField[FR](api)
	if err != nil {
		return fmt.Errorf("new scalars: %w", err)
	}
	h, err := hasher.NewHasher(api)
	if err != nil {
		return err
	}
	toVar := func(e *emulated.Element[FR]) frontend.Variable {
		bs := scalarApi.ToBits(e)
		return api.FromBinary(bs...)
	}

	var digests []kzg.Commitment[G1El]
	var proofs []kzg.OpeningProof[FR, G1El]
	var points []emulated.Element[FR]
	inputs := append([]frontend.Variable{hasher.CID_BATCH.BigInt(new(big.Int))}, me.Layout...)
	next := 0
	for i := range me.Keys {
		dg, pr, pts, err := verifier.PrepareVerification(me.Keys[i], me.Proofs[i], me.Witnesses[i], stdplonk.WithCompleteArithmetic())
		if err != nil {
			return fmt.Errorf("prepare slot %d: %w", i, err)
		}
		digests = append(digests, dg...)
		proofs = append(proofs, pr...)
		points = append(points, pts...)
		for j := range me.Witnesses[i].Public {
			if next >= len(me.Publics) {
				return errors.New("more inner public inputs than outer ones")
			}
			api.AssertIsEqual(toVar(&me.Witnesses[i].Public[j]), me.Publics[next])
			inputs = append(inputs, me.Publics[next])
			next++
		}
	}
	if next != len(me.Publics) {
		return errors.New("fewer inner public inputs than outer ones")
	}
	if err := kzgVerifier.BatchVerifyMultiPoints(digests, proofs, points, me.Keys[0].Kzg); err != nil {
		return fmt.Errorf("batch verify kzg: %w", err)
	}
	api.AssertIsEqual(h.Sum(inputs...), me.Digest)
	return nil
}

// Placeholder returns the circuit to compile for keys in slot order. All
// keys must share the KZG verifying key.
func Placeholder(keys []*snarkagg.Vk) (*Circuit, error) {
	if len(keys) == 0 {
		return nil, snarkagg.ErrEmptyBatch
	}
	c := &Circuit{}
	np := 0
	for i, key := range keys {
		if !key.Kzg.G1.Equal(&keys[0].Kzg.G1) || !key.Kzg.G2[0].Equal(&keys[0].Kzg.G2[0]) || !key.Kzg.G2[1].Equal(&keys[0].Kzg.G2[1]) {
			return nil, fmt.Errorf("slot %d uses another srs", i)
		}
		if key.Family == snarkagg.FamilyAttestation {
			return nil, snarkagg.WrapAttestedInput(i, key.ID())
		}
		gvk, err := key.ToGnarkVerifyingKey()
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		vk, err := stdplonk.ValueOfVerifyingKey[FR, G1El, G2El](gvk)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		nc := len(key.QC)
		c.Keys = append(c.Keys, vk)
		id := key.ID().Element()
		c.Layout = append(c.Layout, id.BigInt(new(big.Int)))
		c.Proofs = append(c.Proofs, stdplonk.Proof[FR, G1El, G2El]{
			BatchedProof: kzg.BatchOpeningProof[FR, G1El]{
				ClaimedValues: make([]emulated.Element[FR], 6+nc),
			},
			Bsb22Commitments: make([]kzg.Commitment[G1El], nc),
		})
		c.Witnesses = append(c.Witnesses, stdplonk.Witness[FR]{
			Public: make([]emulated.Element[FR], key.Arity()),
		})
		np += key.Arity()
	}
	c.Publics = make([]frontend.Variable, np)
	return c, nil
}

// Assign fills a copy of placeholder with the slots and the digest.
func Assign(placeholder *Circuit, inputs []snarkagg.AggregationInput, digest fr.Element) (*Circuit, error) {
	if len(inputs) != len(placeholder.Keys) {
		return nil, fmt.Errorf("%d inputs for %d slots", len(inputs), len(placeholder.Keys))
	}
	c := &Circuit{
		Keys:   placeholder.Keys,
		Layout: placeholder.Layout,
		Digest: digest.BigInt(new(big.Int)),
	}
	for i, in := range inputs {
		proof, err := stdplonk.ValueOfProof[FR, G1El, G2El](in.Proof.ToGnarkProof())
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		var w stdplonk.Witness[FR]
		for j := range in.Record.PublicInputs {
			x := in.Record.PublicInputs[j].BigInt(new(big.Int))
			w.Public = append(w.Public, emulated.ValueOf[FR](x))
			c.Publics = append(c.Publics, x)
		}
		c.Proofs = append(c.Proofs, proof)
		c.Witnesses = append(c.Witnesses, w)
	}
	return c, nil
}
