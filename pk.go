package snarkagg

import (
	"errors"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/consensys/gnark/backend/plonk"
	plonkbls12381 "github.com/consensys/gnark/backend/plonk/bls12-381"
	"github.com/consensys/gnark/constraint"
	csbls12381 "github.com/consensys/gnark/constraint/bls12-381"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
)

// Pk holds a compiled circuit and its verifying key. The SRS is attached
// separately so that a serialized Pk stays small.
type Pk struct {
	vk  Vk
	ccs csbls12381.SparseR1CS
	srs *SRS
}

func (me *Pk) Compile(circuit frontend.Circuit, srs *SRS) error {
	ccs, err := frontend.Compile(FIELD, scs.NewBuilder, circuit)
	if err != nil {
		return err
	}
	me.srs = srs
	sc, sl := plonk.SRSSize(ccs)
	ck, lk, err := srs.ProvingKeys(sc, sl)
	if err != nil {
		return err
	}
	vk := srs.VerifyingKey()
	_, ivk, err := plonk.Setup(ccs, &kzg.SRS{Pk: ck, Vk: vk}, &kzg.SRS{Pk: lk, Vk: vk})
	if err != nil {
		return err
	}
	return me.FromGnarkConstraintSystemAndVerifyingKey(ccs, ivk)
}

func (me *Pk) Vk() *Vk {
	return &me.vk
}

func (me *Pk) SetSRS(srs *SRS) {
	me.srs = srs
}

func (me *Pk) ToGnarkProvingKey() (plonk.ProvingKey, error) {
	if me.srs == nil {
		return nil, errors.New("proving key has no srs attached")
	}
	ck, lk, err := me.srs.ProvingKeys(plonk.SRSSize(&me.ccs))
	if err != nil {
		return nil, err
	}
	vk, err := me.vk.ToGnarkVerifyingKey()
	if err != nil {
		return nil, err
	}
	return &plonkbls12381.ProvingKey{
		Kzg:         ck,
		KzgLagrange: lk,
		Vk:          vk.(*plonkbls12381.VerifyingKey),
	}, nil
}

func (me *Pk) ToGnarkConstraintSystem() constraint.ConstraintSystem {
	return &me.ccs
}

func (me *Pk) FromGnarkConstraintSystemAndVerifyingKey(ccs constraint.ConstraintSystem, vk plonk.VerifyingKey) error {
	cs, ok := ccs.(*csbls12381.SparseR1CS)
	if !ok {
		return errors.New("constraint system is not a bls12-381 sparse r1cs")
	}
	if err := me.vk.FromGnarkVerifyingKey(vk); err != nil {
		return err
	}
	me.ccs = *cs
	return nil
}

// Prove solves the circuit for assignment and returns the public inputs in
// declaration order together with the proof.
func (me *Pk) Prove(assignment frontend.Circuit) ([]fr.Element, *Proof, error) {
	witness, err := frontend.NewWitness(assignment, FIELD)
	if err != nil {
		return nil, nil, err
	}
	ipk, err := me.ToGnarkProvingKey()
	if err != nil {
		return nil, nil, err
	}
	gp, err := plonk.Prove(&me.ccs, ipk, witness, OPT_PROVER)
	if err != nil {
		return nil, nil, err
	}
	var proof Proof
	if err := proof.FromGnarkProof(gp); err != nil {
		return nil, nil, err
	}
	public, err := witness.Public()
	if err != nil {
		return nil, nil, err
	}
	vec, ok := public.Vector().(fr.Vector)
	if !ok {
		return nil, nil, errors.New("public witness is not a bls12-381 vector")
	}
	return []fr.Element(vec), &proof, nil
}

func (me *Pk) WriteTo(w io.Writer) (int64, error) {
	if n, err := me.vk.WriteTo(w); err != nil {
		return n, err
	} else {
		m, err := me.ccs.WriteTo(w)
		return m + n, err
	}
}

func (me *Pk) ReadFrom(r io.Reader) (int64, error) {
	if n, err := me.vk.ReadFrom(r); err != nil {
		return n, err
	} else {
		m, err := me.ccs.ReadFrom(r)
		return m + n, err
	}
}
