package attest

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/test"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/circuits/sample"
)

func TestAttestation(t *testing.T) {
	assert := test.NewAssert(t)
	srs, err := snarkagg.NewUnsafeSRS(1<<14+3, big.NewInt(0x5eed))
	assert.NoError(err)
	var pk snarkagg.Pk
	assert.NoError(pk.Compile(&sample.Product{}, srs))

	var inputs []snarkagg.AggregationInput
	var ids []snarkagg.KeyID
	var publics [][]fr.Element
	for i := uint64(1); i <= 3; i++ {
		p, proof, err := pk.Prove(sample.NewProduct(i, i+1, i+2))
		assert.NoError(err)
		record, err := snarkagg.NewRecord(pk.Vk(), p, proof)
		assert.NoError(err)
		inputs = append(inputs, snarkagg.AggregationInput{Record: record, Key: pk.Vk(), Proof: proof})
		ids = append(ids, record.KeyID)
		publics = append(publics, p)
	}
	digest := snarkagg.BatchDigest(ids, publics)

	keys := []*snarkagg.Vk{pk.Vk(), pk.Vk(), pk.Vk()}
	placeholder, err := Placeholder(keys)
	assert.NoError(err)
	assignment, err := Assign(placeholder, inputs, digest)
	assert.NoError(err)
	assert.NoError(test.IsSolved(placeholder, assignment, snarkagg.FIELD))

	backend := NewBackend(srs, nil)
	apk, err := backend.Setup(keys)
	assert.NoError(err)
	proof, out, err := backend.Prove(apk, inputs, digest)
	assert.NoError(err)
	assert.Len(out, 1+12)
	assert.True(out[0].Equal(&digest))

	vk := apk.Vk()
	vk.Family = snarkagg.FamilyAttestation
	vk.Layout = ids
	record, err := snarkagg.NewRecord(vk, out, proof)
	assert.NoError(err)
	report, err := snarkagg.NewVerifier().Verify(record, vk)
	assert.NoError(err)
	assert.True(report.Valid)

	// the digest is bound
	var wrong fr.Element
	wrong.SetUint64(3)
	_, _, err = backend.Prove(apk, inputs, wrong)
	assert.Error(err)

	// inputs are verified before proving
	inputs[1].Record.PublicInputs[0].SetUint64(9)
	_, _, err = backend.Prove(apk, inputs, digest)
	assert.ErrorIs(err, ErrInvalidInput)
}
