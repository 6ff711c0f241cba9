package snarkagg_test

import (
	"math/big"
	"sync"
	"testing"

	"github.com/consensys/gnark/frontend"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/circuits/sample"
)

// large enough for the 100-slot attestation circuit
const testSRSSize = 1<<19 + 3

var fixtures struct {
	once     sync.Once
	srs      *snarkagg.SRS
	product  *snarkagg.Pk
	preimage *snarkagg.Pk
	err      error
}

func setup(t testing.TB) (*snarkagg.SRS, *snarkagg.Pk, *snarkagg.Pk) {
	t.Helper()
	fixtures.once.Do(func() {
		if fixtures.srs, fixtures.err = snarkagg.NewUnsafeSRS(testSRSSize, big.NewInt(0x5eed)); fixtures.err != nil {
			return
		}
		fixtures.product, fixtures.preimage = new(snarkagg.Pk), new(snarkagg.Pk)
		if fixtures.err = fixtures.product.Compile(&sample.Product{}, fixtures.srs); fixtures.err != nil {
			return
		}
		fixtures.err = fixtures.preimage.Compile(&sample.Preimage{}, fixtures.srs)
	})
	require.NoError(t, fixtures.err)
	return fixtures.srs, fixtures.product, fixtures.preimage
}

func prove(t testing.TB, pk *snarkagg.Pk, assignment frontend.Circuit) *snarkagg.ProofRecord {
	t.Helper()
	publics, proof, err := pk.Prove(assignment)
	require.NoError(t, err)
	record, err := snarkagg.NewRecord(pk.Vk(), publics, proof)
	require.NoError(t, err)
	return record
}

// records alternates product and preimage proofs.
func records(t testing.TB, n int) []*snarkagg.ProofRecord {
	t.Helper()
	_, product, preimage := setup(t)
	ret := make([]*snarkagg.ProofRecord, n)
	for i := range ret {
		if i%2 == 0 {
			ret[i] = prove(t, product, sample.NewProduct(uint64(i+1), 3, 7))
		} else {
			ret[i] = prove(t, preimage, sample.NewPreimage(uint64(i)))
		}
	}
	return ret
}

func layout(batch []*snarkagg.ProofRecord) []snarkagg.KeyID {
	ids := make([]snarkagg.KeyID, len(batch))
	for i := range batch {
		ids[i] = batch[i].KeyID
	}
	return ids
}
