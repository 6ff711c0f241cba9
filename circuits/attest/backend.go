package attest

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/snarkagg"
)

var ErrInvalidInput = errors.New("input proof does not verify")

type Backend struct {
	srs      *snarkagg.SRS
	verifier *snarkagg.Verifier
}

func NewBackend(srs *snarkagg.SRS, verifier *snarkagg.Verifier) *Backend {
	if verifier == nil {
		verifier = snarkagg.NewVerifier()
	}
	return &Backend{srs: srs, verifier: verifier}
}

// Family is FamilyAttestation: inputs are verified outside the circuit,
// so the keys this backend produces cannot feed a recursive aggregate.
func (me *Backend) Family() snarkagg.Family {
	return snarkagg.FamilyAttestation
}

func (me *Backend) Setup(layout []*snarkagg.Vk) (*snarkagg.Pk, error) {
	for i, key := range layout {
		if !me.srs.Pins(key) {
			return nil, snarkagg.WrapForeignSRS(i, key.ID())
		}
	}
	circuit, err := Placeholder(layout)
	if err != nil {
		return nil, err
	}
	var pk snarkagg.Pk
	if err := pk.Compile(circuit, me.srs); err != nil {
		return nil, err
	}
	return &pk, nil
}

func (me *Backend) Prove(pk *snarkagg.Pk, inputs []snarkagg.AggregationInput, digest fr.Element) (*snarkagg.Proof, []fr.Element, error) {
	keys := make([]*snarkagg.Vk, len(inputs))
	for i, in := range inputs {
		report, err := me.verifier.Verify(in.Record, in.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if !report.Valid {
			return nil, nil, fmt.Errorf("slot %d: %w (%s)", i, ErrInvalidInput, report)
		}
		keys[i] = in.Key
	}
	placeholder, err := Placeholder(keys)
	if err != nil {
		return nil, nil, err
	}
	assignment, err := Assign(placeholder, inputs, digest)
	if err != nil {
		return nil, nil, err
	}
	publics, proof, err := pk.Prove(assignment)
	if err != nil {
		return nil, nil, err
	}
	return proof, publics, nil
}
