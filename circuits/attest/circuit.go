// Package attest aggregates by checking every input with the native
// verifier and proving only the batch digest. The aggregate is as
// trustworthy as the party running the backend.
package attest

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/circuits/hasher"
)

// Circuit recomputes the batch digest from the layout and the public inputs.
type Circuit struct {
	Layout []frontend.Variable `gnark:"-"`

	Digest  frontend.Variable   `gnark:",public"`
	Publics []frontend.Variable `gnark:",public"`
}

func (me *Circuit) Define(api frontend.API) error {
	if len(me.Layout) == 0 {
		return errors.New("empty layout")
	}
	h, err := hasher.NewHasher(api)
	if err != nil {
		return err
	}
	inputs := append([]frontend.Variable{hasher.CID_BATCH.BigInt(new(big.Int))}, me.Layout...)
	inputs = append(inputs, me.Publics...)
	api.AssertIsEqual(h.Sum(inputs...), me.Digest)
	return nil
}

func Placeholder(keys []*snarkagg.Vk) (*Circuit, error) {
	if len(keys) == 0 {
		return nil, snarkagg.ErrEmptyBatch
	}
	c := &Circuit{}
	np := 0
	for _, key := range keys {
		id := key.ID().Element()
		c.Layout = append(c.Layout, id.BigInt(new(big.Int)))
		np += key.Arity()
	}
	c.Publics = make([]frontend.Variable, np)
	return c, nil
}

func Assign(placeholder *Circuit, inputs []snarkagg.AggregationInput, digest fr.Element) (*Circuit, error) {
	if len(inputs) != len(placeholder.Layout) {
		return nil, fmt.Errorf("%d inputs for %d slots", len(inputs), len(placeholder.Layout))
	}
	c := &Circuit{Layout: placeholder.Layout, Digest: digest.BigInt(new(big.Int))}
	for _, in := range inputs {
		for j := range in.Record.PublicInputs {
			c.Publics = append(c.Publics, in.Record.PublicInputs[j].BigInt(new(big.Int)))
		}
	}
	return c, nil
}
