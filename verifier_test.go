package snarkagg_test

import (
	"context"
	"hash"
	"math/rand"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/frontend"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/circuits/sample"
)

type countingScheme struct {
	snarkagg.KZG
	calls *atomic.Int32
}

func (c countingScheme) Fold(digests []kzg.Digest, proof *kzg.BatchOpeningProof, point fr.Element, hf hash.Hash, transcript ...[]byte) (kzg.OpeningProof, kzg.Digest, error) {
	c.calls.Add(1)
	return c.KZG.Fold(digests, proof, point, hf, transcript...)
}

func (c countingScheme) Accumulate(digests []kzg.Digest, proofs []kzg.OpeningProof, points []fr.Element, vk kzg.VerifyingKey) (snarkagg.Accumulator, error) {
	c.calls.Add(1)
	return c.KZG.Accumulate(digests, proofs, points, vk)
}

type countingPairing struct {
	snarkagg.KZG
	calls *atomic.Int32
}

func (c countingPairing) Check(acc snarkagg.Accumulator, vk kzg.VerifyingKey) (bool, error) {
	c.calls.Add(1)
	return c.KZG.Check(acc, vk)
}

func TestVerifyHonestProofs(t *testing.T) {
	_, product, preimage := setup(t)
	v := snarkagg.NewVerifier()
	for _, tc := range []struct {
		name       string
		pk         *snarkagg.Pk
		assignment frontend.Circuit
	}{
		{"product", product, sample.NewProduct(2, 3, 5)},
		{"preimage", preimage, sample.NewPreimage(11)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			record := prove(t, tc.pk, tc.assignment)
			report, err := v.Verify(record, tc.pk.Vk())
			require.NoError(t, err)
			require.True(t, report.Valid)
			require.Equal(t, snarkagg.StageNone, report.FailedStage)

			// same verdict as gnark
			proof, err := record.Proof()
			require.NoError(t, err)
			public, err := frontend.NewWitness(tc.assignment, snarkagg.FIELD, frontend.PublicOnly())
			require.NoError(t, err)
			gvk, err := tc.pk.Vk().ToGnarkVerifyingKey()
			require.NoError(t, err)
			require.NoError(t, plonk.Verify(proof.ToGnarkProof(), gvk, public, snarkagg.OPT_VERIFIER))
		})
	}
}

func TestReferenceBackendAgrees(t *testing.T) {
	_, product, _ := setup(t)
	record := prove(t, product, sample.NewProduct(4, 5, 6))
	tampered := *record
	tampered.PublicInputs = slices.Clone(record.PublicInputs)
	tampered.PublicInputs[0].SetUint64(5)

	fast := snarkagg.NewVerifier()
	ref := snarkagg.NewVerifier(snarkagg.WithCommitmentScheme(snarkagg.ReferenceKZG{}), snarkagg.WithPairingEngine(snarkagg.ReferenceKZG{}))
	for _, r := range []*snarkagg.ProofRecord{record, &tampered} {
		a, err := fast.Verify(r, product.Vk())
		require.NoError(t, err)
		b, err := ref.Verify(r, product.Vk())
		require.NoError(t, err)
		require.Equal(t, a, b)
	}
}

func TestVerifyTamperedPublicInput(t *testing.T) {
	_, product, _ := setup(t)
	record := prove(t, product, sample.NewProduct(2, 3, 5))
	record.PublicInputs[3].SetUint64(31)
	report, err := snarkagg.NewVerifier().Verify(record, product.Vk())
	require.NoError(t, err)
	require.False(t, report.Valid)
	require.Equal(t, snarkagg.StageTranscript, report.FailedStage)
}

func TestVerifyBitFlips(t *testing.T) {
	_, product, _ := setup(t)
	record := prove(t, product, sample.NewProduct(2, 3, 5))
	v := snarkagg.NewVerifier()
	rng := rand.New(rand.NewSource(1))
	nbFlips := 256
	if testing.Short() {
		nbFlips = 32
	}
	nbBits := len(record.ProofBytes) * 8
	for it := 0; it < nbFlips; it++ {
		bit := rng.Intn(nbBits)
		flipped := *record
		flipped.ProofBytes = slices.Clone(record.ProofBytes)
		flipped.ProofBytes[bit/8] ^= 1 << (bit % 8)
		report, err := v.Verify(&flipped, product.Vk())
		if err != nil {
			require.ErrorIs(t, err, snarkagg.ErrMalformedEncoding, "bit %d", bit)
			continue
		}
		require.False(t, report.Valid, "bit %d", bit)
	}
}

func TestVerifyKeyMismatch(t *testing.T) {
	_, product, preimage := setup(t)
	record := prove(t, product, sample.NewProduct(2, 3, 5))
	_, err := snarkagg.NewVerifier().Verify(record, preimage.Vk())
	require.ErrorIs(t, err, snarkagg.ErrKeyMismatch)
	require.Equal(t, snarkagg.ClassStructural, snarkagg.Classify(err))
}

func TestVerifyArityBeforeCrypto(t *testing.T) {
	_, product, _ := setup(t)
	record := prove(t, product, sample.NewProduct(2, 3, 5))
	record.PublicInputs = record.PublicInputs[:3]

	var schemeCalls, pairingCalls, hashCalls atomic.Int32
	v := snarkagg.NewVerifier(
		snarkagg.WithCommitmentScheme(countingScheme{calls: &schemeCalls}),
		snarkagg.WithPairingEngine(countingPairing{calls: &pairingCalls}),
		snarkagg.WithHashes(func() (snarkagg.Hashes, error) {
			hashCalls.Add(1)
			return snarkagg.NewHashes()
		}),
	)
	_, err := v.Verify(record, product.Vk())
	require.ErrorIs(t, err, snarkagg.ErrArityMismatch)
	require.ErrorContains(t, err, "expected=4 actual=3")
	require.Zero(t, schemeCalls.Load())
	require.Zero(t, pairingCalls.Load())
	require.Zero(t, hashCalls.Load())

	// the same verifier does reach every stage on a well-formed record
	record = prove(t, product, sample.NewProduct(2, 3, 5))
	report, err := v.Verify(record, product.Vk())
	require.NoError(t, err)
	require.True(t, report.Valid)
	require.EqualValues(t, 2, schemeCalls.Load())
	require.EqualValues(t, 1, pairingCalls.Load())
	require.EqualValues(t, 1, hashCalls.Load())
}

func TestVerifyBatch(t *testing.T) {
	_, product, preimage := setup(t)
	batch := records(t, 6)
	batch[3] = func() *snarkagg.ProofRecord {
		r := *batch[3]
		r.PublicInputs = slices.Clone(r.PublicInputs)
		r.PublicInputs[0].SetUint64(1)
		return &r
	}()
	keys := snarkagg.NewKeyRing(product.Vk(), preimage.Vk())
	reports, err := snarkagg.NewVerifier(snarkagg.WithWorkers(3)).VerifyBatch(context.Background(), batch, keys)
	require.NoError(t, err)
	require.Len(t, reports, len(batch))
	for i, r := range reports {
		require.Equal(t, i != 3, r.Valid, "record %d", i)
	}

	_, err = snarkagg.NewVerifier().VerifyBatch(context.Background(), batch, snarkagg.NewKeyRing(product.Vk()))
	require.ErrorIs(t, err, snarkagg.ErrUnknownKey)
}
