package recursion

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/snarkagg"
)

// Backend aggregates by recursive verification.
type Backend struct {
	srs *snarkagg.SRS
}

func NewBackend(srs *snarkagg.SRS) *Backend {
	return &Backend{srs: srs}
}

// Family is FamilyAggregation: every input is verified in-circuit.
func (me *Backend) Family() snarkagg.Family {
	return snarkagg.FamilyAggregation
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
	for i := range inputs {
		keys[i] = inputs[i].Key
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
