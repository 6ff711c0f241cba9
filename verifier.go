package snarkagg

import (
	"context"
	"fmt"
	"hash"
	"math/big"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/hash_to_field"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/consensys/gnark/backend"
	"golang.org/x/sync/errgroup"
)

// Hashes are the transcript hashes of one verification.
type Hashes struct {
	Challenge   hash.Hash
	Folding     hash.Hash
	HashToField hash.Hash
}

// NewHashes returns fresh instances of the hashes OPT_VERIFIER selects.
func NewHashes() (Hashes, error) {
	cfg, err := backend.NewVerifierConfig(OPT_VERIFIER)
	if err != nil {
		return Hashes{}, err
	}
	htf := cfg.HashToFieldFn
	if htf == nil {
		htf = hash_to_field.New([]byte("BSB22-Plonk"))
	}
	return Hashes{Challenge: cfg.ChallengeHash, Folding: cfg.KZGFoldingHash, HashToField: htf}, nil
}

// Verifier checks single proofs. It holds no mutable state and may be
// shared between goroutines.
type Verifier struct {
	scheme  CommitmentScheme
	pairing PairingEngine
	hashes  func() (Hashes, error)
	workers int
}

type Option func(*Verifier)

func WithCommitmentScheme(s CommitmentScheme) Option {
	return func(v *Verifier) { v.scheme = s }
}

func WithPairingEngine(p PairingEngine) Option {
	return func(v *Verifier) { v.pairing = p }
}

// WithHashes replaces the source of transcript hashes. It is called once
// per verification, after the structural checks.
func WithHashes(fn func() (Hashes, error)) Option {
	return func(v *Verifier) { v.hashes = fn }
}

// WithWorkers bounds the parallelism of VerifyBatch.
func WithWorkers(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.workers = n
		}
	}
}

func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		scheme:  KZG{},
		pairing: KZG{},
		hashes:  NewHashes,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks record against key. Structural problems are returned as
// errors; a proof that fails a cryptographic check yields a report with
// Valid unset and the failing stage.
func (me *Verifier) Verify(record *ProofRecord, key *Vk) (VerificationReport, error) {
	if id := key.ID(); record.KeyID != id {
		return VerificationReport{}, WrapKeyMismatch(id, record.KeyID)
	}
	if len(record.PublicInputs) != key.Arity() {
		return VerificationReport{}, WrapArityMismatch(key.Arity(), len(record.PublicInputs))
	}
	proof, err := record.Proof()
	if err != nil {
		return VerificationReport{}, err
	}
	if len(proof.BSB) != len(key.QC) {
		return VerificationReport{}, WrapMalformed("proof", fmt.Errorf("%d commitments, key has %d", len(proof.BSB), len(key.QC)))
	}
	hs, err := me.hashes()
	if err != nil {
		return VerificationReport{}, err
	}
	return me.verify(key, proof, record.PublicInputs, hs)
}

func (me *Verifier) verify(key *Vk, proof *Proof, publics []fr.Element, hs Hashes) (VerificationReport, error) {
	ch, err := deriveChallenges(hs.Challenge, key, publics, proof)
	if err != nil {
		return VerificationReport{}, err
	}
	gamma, beta, alpha, zeta := ch.gamma, ch.beta, ch.alpha, ch.zeta
	generator, err := fr.Generator(key.Size())
	if err != nil {
		return VerificationReport{}, err
	}
	one := fr.One()
	var lin, tmp, s1, s2, cz, rl, zetana2zh, zetana2sqzh, zh, sizeinv, l0, alpha2l0, zetas fr.Element
	zh.Exp(zeta, big.NewInt(int64(key.Size())))
	zh.Sub(&zh, &one)                                                 // ζⁿ-1
	sizeinv.SetUint64(key.Size()).Inverse(&sizeinv)                   // 1/n
	l0.Sub(&zeta, &one).Inverse(&l0).Mul(&l0, &zh).Mul(&l0, &sizeinv) // 1/n * (ζ^n-1)/(ζ-1)
	alpha2l0.Mul(&l0, &alpha).Mul(&alpha2l0, &alpha)                  // α²/n * (ζ^n-1)/(ζ-1)
	pi := publicTerm(key, proof, publics, zeta, zh, generator, hs.HashToField)

	// -[PI(ζ) - α²*L₁(ζ) + α(l(ζ)+β*s1(ζ)+γ)(r(ζ)+β*s2(ζ)+γ)(o(ζ)+γ)*z(ωζ)]
	lin.Mul(&beta, &proof.CS1).Add(&lin, &gamma).Add(&lin, &proof.CVL)
	lin.Mul(&lin, tmp.Mul(&proof.CS2, &beta).Add(&tmp, &gamma).Add(&tmp, &proof.CVR))
	lin.Mul(&lin, tmp.Add(&proof.CVO, &gamma)).Mul(&lin, &alpha).Mul(&lin, &proof.CZO)
	lin.Sub(&lin, &alpha2l0).Add(&lin, &pi).Neg(&lin)
	if !lin.Equal(&proof.COL) {
		return invalid(StageTranscript), nil
	}

	// α*(l(ζ)+β*s1(ζ)+γ)*(r(ζ)+β*s2(ζ)+γ)*β*Z(ωζ)
	s1.Mul(&beta, &proof.CS1).Add(&s1, &proof.CVL).Add(&s1, &gamma)
	s1.Mul(&s1, tmp.Mul(&beta, &proof.CS2).Add(&tmp, &proof.CVR).Add(&tmp, &gamma))
	s1.Mul(&s1, &beta).Mul(&s1, &alpha).Mul(&s1, &proof.CZO)
	// -α*(l(ζ)+β*ζ+γ)*(r(ζ)+β*u*ζ+γ)*(o(ζ)+β*u²*ζ+γ)
	s2.Mul(&beta, &zeta).Add(&s2, &gamma).Add(&s2, &proof.CVL)
	s2.Mul(&s2, tmp.Mul(&beta, &COSET_SHIFT).Mul(&tmp, &zeta).Add(&tmp, &gamma).Add(&tmp, &proof.CVR))
	s2.Mul(&s2, tmp.Mul(&beta, &COSET_SHIFT).Mul(&tmp, &COSET_SHIFT).Mul(&tmp, &zeta).Add(&tmp, &proof.CVO).Add(&tmp, &gamma))
	s2.Mul(&s2, &alpha).Neg(&s2)
	cz.Add(&alpha2l0, &s2)         // α²*L₁(ζ) - α*(l(ζ)+β*ζ+γ)*(r(ζ)+β*u*ζ+γ)*(o(ζ)+β*u²*ζ+γ)
	rl.Mul(&proof.CVL, &proof.CVR) // l(ζ)*r(ζ)

	zetana2zh.Exp(zeta, big.NewInt(int64(key.Size())+2))
	zetana2sqzh.Mul(&zetana2zh, &zetana2zh).Mul(&zetana2sqzh, &zh).Neg(&zetana2sqzh) // -ζ²⁽ⁿ⁺²⁾*(ζⁿ-1)
	zetana2zh.Mul(&zetana2zh, &zh).Neg(&zetana2zh)                                   // -ζⁿ⁺²*(ζⁿ-1)
	zh.Neg(&zh)
	zetas.Mul(&zeta, &generator)

	var lpd bls12381.G1Affine
	points := append(append([]bls12381.G1Affine{}, proof.BSB...), key.QL, key.QR, key.QM, key.QO, key.QK, key.S3, proof.CPZ, proof.CH1, proof.CH2, proof.CH3)
	scalars := append(append([]fr.Element{}, proof.CQC...), proof.CVL, proof.CVR, rl, proof.CVO, one, s1, cz, zh, zetana2zh, zetana2sqzh)
	if _, err := lpd.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return VerificationReport{}, err
	}

	digests := append([]kzg.Digest{lpd, proof.CW1, proof.CW2, proof.CW3, key.S1, key.S2}, key.QC...)
	batch := kzg.BatchOpeningProof{
		H:             proof.HBP,
		ClaimedValues: append([]fr.Element{proof.COL, proof.CVL, proof.CVR, proof.CVO, proof.CS1, proof.CS2}, proof.CQC...),
	}
	folded, digest, err := me.scheme.Fold(digests, &batch, zeta, hs.Folding, proof.CZO.Marshal())
	if err != nil {
		return invalid(StageOpening), nil
	}
	acc, err := me.scheme.Accumulate(
		[]kzg.Digest{digest, proof.CPZ},
		[]kzg.OpeningProof{folded, {H: proof.HZO, ClaimedValue: proof.CZO}},
		[]fr.Element{zeta, zetas},
		key.Kzg,
	)
	if err != nil {
		return invalid(StageOpening), nil
	}
	ok, err := me.pairing.Check(acc, key.Kzg)
	if err != nil {
		return VerificationReport{}, err
	}
	if !ok {
		return invalid(StagePairing), nil
	}
	return valid(), nil
}

// VerifyBatch verifies independent records in parallel and returns the
// reports in input order. Keys are resolved through keys; the first error
// cancels the remaining records.
func (me *Verifier) VerifyBatch(ctx context.Context, records []*ProofRecord, keys *KeyRing) ([]VerificationReport, error) {
	reports := make([]VerificationReport, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(me.workers)
	for i, record := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			key, err := keys.Resolve(record.KeyID)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			if reports[i], err = me.Verify(record, key); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
