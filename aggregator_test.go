package snarkagg_test

import (
	"fmt"
	"math/big"
	"slices"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/circuits/attest"
)

func newAggregator(t *testing.T, opts ...snarkagg.AggregatorOption) *snarkagg.Aggregator {
	t.Helper()
	srs, product, preimage := setup(t)
	agg, err := snarkagg.NewAggregator(snarkagg.NewKeyRing(product.Vk(), preimage.Vk()), attest.NewBackend(srs, nil), opts...)
	require.NoError(t, err)
	return agg
}

func TestAggregateCompleteness(t *testing.T) {
	for _, n := range []int{1, 5, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			if n > 5 && testing.Short() {
				t.Skip("skipping large batch in short mode")
			}
			agg := newAggregator(t)
			batch := records(t, n)
			aggKey, err := agg.Prepare(layout(batch))
			require.NoError(t, err)
			require.Equal(t, snarkagg.FamilyAttestation, aggKey.Family)

			out, err := agg.Aggregate(batch, aggKey)
			require.NoError(t, err)
			require.Equal(t, aggKey.ID(), out.KeyID)

			report, err := snarkagg.NewVerifier().Verify(out, aggKey)
			require.NoError(t, err)
			require.True(t, report.Valid)

			split, err := snarkagg.SplitPublicInputs(aggKey, out, agg.Keys())
			require.NoError(t, err)
			require.Len(t, split, n)
			for i := range batch {
				require.Equal(t, batch[i].PublicInputs, split[i], "slot %d", i)
			}
		})
	}
}

func TestAggregateNested(t *testing.T) {
	agg := newAggregator(t)
	batch := records(t, 4)
	inner, err := agg.Prepare(layout(batch[:2]))
	require.NoError(t, err)
	first, err := agg.Aggregate(batch[:2], inner)
	require.NoError(t, err)
	second, err := agg.Aggregate(batch[2:], inner)
	require.NoError(t, err)

	outer, err := agg.Prepare([]snarkagg.KeyID{first.KeyID, second.KeyID})
	require.NoError(t, err)
	top, err := agg.Aggregate(snarkagg.AggregationBatch{first, second}, outer)
	require.NoError(t, err)

	report, err := snarkagg.NewVerifier().Verify(top, outer)
	require.NoError(t, err)
	require.True(t, report.Valid)

	split, err := snarkagg.SplitPublicInputs(outer, top, agg.Keys())
	require.NoError(t, err)
	require.Equal(t, first.PublicInputs, split[0])
	require.Equal(t, second.PublicInputs, split[1])
}

func TestAggregateOrder(t *testing.T) {
	agg := newAggregator(t)
	batch := records(t, 4)
	reversed := slices.Clone(batch)
	slices.Reverse(reversed)

	key, err := agg.Prepare(layout(batch))
	require.NoError(t, err)
	rkey, err := agg.Prepare(layout(reversed))
	require.NoError(t, err)
	require.NotEqual(t, key.ID(), rkey.ID())

	_, err = agg.Aggregate(reversed, key)
	require.ErrorIs(t, err, snarkagg.ErrCircuitConstruction)

	a, err := agg.Aggregate(batch, key)
	require.NoError(t, err)
	b, err := agg.Aggregate(reversed, rkey)
	require.NoError(t, err)
	require.NotEqual(t, a.PublicInputs[0], b.PublicInputs[0])
	require.Equal(t, batch[0].PublicInputs, a.PublicInputs[1:1+len(batch[0].PublicInputs)])
}

func TestAggregateEmptyBatch(t *testing.T) {
	agg := newAggregator(t)
	_, err := agg.Prepare(nil)
	require.ErrorIs(t, err, snarkagg.ErrEmptyBatch)
	_, err = agg.Aggregate(nil, &snarkagg.Vk{Family: snarkagg.FamilyAttestation})
	require.ErrorIs(t, err, snarkagg.ErrEmptyBatch)
	require.Equal(t, snarkagg.ClassStructural, snarkagg.Classify(err))
}

func TestAggregateUnknownKey(t *testing.T) {
	srs, product, _ := setup(t)
	agg, err := snarkagg.NewAggregator(snarkagg.NewKeyRing(product.Vk()), attest.NewBackend(srs, nil))
	require.NoError(t, err)
	batch := records(t, 2)
	_, err = agg.Prepare(layout(batch))
	require.ErrorIs(t, err, snarkagg.ErrKeyResolution)
	require.ErrorContains(t, err, "slot=1")
}

func TestAggregateInvalidInput(t *testing.T) {
	agg := newAggregator(t)
	batch := records(t, 3)
	key, err := agg.Prepare(layout(batch))
	require.NoError(t, err)

	bad := *batch[1]
	bad.PublicInputs = slices.Clone(bad.PublicInputs)
	bad.PublicInputs[0].SetUint64(12345)
	out, err := agg.Aggregate(snarkagg.AggregationBatch{batch[0], &bad, batch[2]}, key)
	require.ErrorIs(t, err, snarkagg.ErrCircuitConstruction)
	require.ErrorIs(t, err, attest.ErrInvalidInput)
	require.Equal(t, snarkagg.ClassBackend, snarkagg.Classify(err))
	require.Nil(t, out)

	garbled := *batch[2]
	garbled.ProofBytes = garbled.ProofBytes[:len(garbled.ProofBytes)-1]
	_, err = agg.Aggregate(snarkagg.AggregationBatch{batch[0], batch[1], &garbled}, key)
	require.ErrorIs(t, err, snarkagg.ErrCircuitConstruction)
	require.ErrorIs(t, err, snarkagg.ErrMalformedEncoding)
	require.Equal(t, snarkagg.ClassBackend, snarkagg.Classify(err))
}

func TestAggregateWithoutCachedProvingKey(t *testing.T) {
	agg := newAggregator(t, snarkagg.WithProvingKeyCache(1))
	batch := records(t, 2)
	first, err := agg.Prepare(layout(batch[:1]))
	require.NoError(t, err)
	_, err = agg.Prepare(layout(batch[1:]))
	require.NoError(t, err)

	// the first proving key was evicted and is set up again
	out, err := agg.Aggregate(batch[:1], first)
	require.NoError(t, err)
	report, err := snarkagg.NewVerifier().Verify(out, first)
	require.NoError(t, err)
	require.True(t, report.Valid)
}

func TestAggregateRejectsCircuitKey(t *testing.T) {
	_, product, _ := setup(t)
	agg := newAggregator(t)
	batch := records(t, 1)
	_, err := agg.Aggregate(batch, product.Vk())
	require.ErrorIs(t, err, snarkagg.ErrCircuitConstruction)
}

// soundBackend claims to verify its inputs in-circuit.
type soundBackend struct {
	snarkagg.AggregationBackend
}

func (soundBackend) Family() snarkagg.Family {
	return snarkagg.FamilyAggregation
}

func TestSoundAggregationRejectsAttestations(t *testing.T) {
	srs, _, _ := setup(t)
	agg := newAggregator(t)
	batch := records(t, 2)
	key, err := agg.Prepare(layout(batch))
	require.NoError(t, err)
	attested, err := agg.Aggregate(batch, key)
	require.NoError(t, err)

	sound, err := snarkagg.NewAggregator(agg.Keys(), soundBackend{attest.NewBackend(srs, nil)})
	require.NoError(t, err)
	_, err = sound.Prepare([]snarkagg.KeyID{batch[0].KeyID, attested.KeyID})
	require.ErrorIs(t, err, snarkagg.ErrAttestedInput)
	require.ErrorContains(t, err, "slot=1")
	require.Equal(t, snarkagg.ClassStructural, snarkagg.Classify(err))

	// and the other way round, the key family must match the backend
	_, err = sound.Aggregate(batch, key)
	require.ErrorIs(t, err, snarkagg.ErrCircuitConstruction)
}

func TestAggregateRejectsForeignSRS(t *testing.T) {
	srs, product, _ := setup(t)
	foreign := *product.Vk()
	var g2, tau bls12381.G2Jac
	g2.FromAffine(&foreign.Kzg.G2[0])
	tau.ScalarMultiplication(&g2, big.NewInt(12345))
	foreign.Kzg.G2[1].FromJacobian(&tau)

	agg, err := snarkagg.NewAggregator(snarkagg.NewKeyRing(&foreign), attest.NewBackend(srs, nil))
	require.NoError(t, err)
	_, err = agg.Prepare([]snarkagg.KeyID{foreign.ID()})
	require.ErrorIs(t, err, snarkagg.ErrForeignSRS)
}
