package snarkagg

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"slices"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/consensys/gnark/backend/plonk"
	plonkbls12381 "github.com/consensys/gnark/backend/plonk/bls12-381"

	"github.com/eon-protocol/snarkagg/circuits/hasher"
)

// Family is the closed set of circuit kinds a key can describe.
type Family uint8

const (
	// FamilyCircuit keys verify application circuits.
	FamilyCircuit Family = iota + 1
	// FamilyAggregation keys verify aggregation circuits; Layout lists the
	// keys of the aggregated slots.
	FamilyAggregation
	// FamilyAttestation keys verify circuits that only bind a batch digest.
	// Their inputs were checked outside the circuit by whoever proved them.
	FamilyAttestation
)

func (f Family) String() string {
	switch f {
	case FamilyCircuit:
		return "circuit"
	case FamilyAggregation:
		return "aggregation"
	case FamilyAttestation:
		return "attestation"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// Batch reports whether keys of this family carry a layout.
func (f Family) Batch() bool {
	return f == FamilyAggregation || f == FamilyAttestation
}

// KeyID is the canonical big-endian encoding of a key's Poseidon2 digest.
type KeyID [fr.Bytes]byte

func (id KeyID) String() string {
	return hex.EncodeToString(id[:])
}

func (id KeyID) Element() fr.Element {
	var e fr.Element
	e.SetBytes(id[:])
	return e
}

func KeyIDFromElement(e fr.Element) KeyID {
	return KeyID(e.Bytes())
}

func ParseKeyID(s string) (KeyID, error) {
	var id KeyID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("key id has %d bytes, want %d", len(b), len(id))
	}
	var e fr.Element
	if err := e.SetBytesCanonical(b); err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// Vk is an immutable PLONK verifying key over BLS12-381.
type Vk struct {
	S1, S2, S3, QL, QR, QM, QO, QK bls12381.G1Affine
	QC                             []bls12381.G1Affine
	CI                             []uint32
	SZ                             uint8
	NP                             uint32
	Kzg                            kzg.VerifyingKey
	Family                         Family
	Layout                         []KeyID
}

// Arity is the number of public inputs.
func (me *Vk) Arity() int {
	return int(me.NP)
}

func (me *Vk) Size() uint64 {
	return 1 << me.SZ
}

// ID binds every field of the key, including the family and the layout.
func (me *Vk) ID() KeyID {
	vals := []fr.Element{hasher.CID_KEY}
	vals = append(vals, hasher.Uints(uint64(me.Family), uint64(me.SZ), uint64(me.NP), uint64(len(me.QC)), uint64(len(me.Layout)))...)
	points := append([]bls12381.G1Affine{me.S1, me.S2, me.S3, me.QL, me.QR, me.QM, me.QO, me.QK, me.Kzg.G1}, me.QC...)
	for _, p := range points {
		vals = append(vals, hasher.HashG1(p))
	}
	vals = append(vals, hasher.HashG2(me.Kzg.G2[0]), hasher.HashG2(me.Kzg.G2[1]))
	for _, ci := range me.CI {
		vals = append(vals, hasher.Uints(uint64(ci))...)
	}
	for _, id := range me.Layout {
		vals = append(vals, id.Element())
	}
	return KeyIDFromElement(hasher.Sum(vals...))
}

func (me *Vk) validate() error {
	switch me.Family {
	case FamilyCircuit:
		if len(me.Layout) != 0 {
			return errors.New("circuit key carries a layout")
		}
	case FamilyAggregation, FamilyAttestation:
		if len(me.Layout) == 0 {
			return fmt.Errorf("%s key without layout", me.Family)
		}
	default:
		return fmt.Errorf("unknown key family %d", me.Family)
	}
	if len(me.QC) != len(me.CI) {
		return errors.New("commitment indexes do not match the commitments")
	}
	if len(me.QC) > MaxCommitments {
		return errors.New("too many commitments")
	}
	if me.SZ > 32 {
		return errors.New("domain size exceeds the 2-adicity of fr")
	}
	return nil
}

func (me *Vk) ToGnarkVerifyingKey() (plonk.VerifyingKey, error) {
	if err := me.validate(); err != nil {
		return nil, err
	}
	var sizeinv fr.Element
	sizeinv.SetUint64(me.Size()).Inverse(&sizeinv)
	generator, err := fr.Generator(me.Size())
	if err != nil {
		return nil, err
	}
	ci := make([]uint64, len(me.CI))
	for i := range me.CI {
		ci[i] = uint64(me.CI[i])
	}
	return &plonkbls12381.VerifyingKey{
		Size:                        me.Size(),
		SizeInv:                     sizeinv,
		Generator:                   generator,
		NbPublicVariables:           uint64(me.NP),
		Kzg:                         me.Kzg,
		CosetShift:                  COSET_SHIFT,
		S:                           [3]bls12381.G1Affine{me.S1, me.S2, me.S3},
		Ql:                          me.QL,
		Qr:                          me.QR,
		Qm:                          me.QM,
		Qo:                          me.QO,
		Qk:                          me.QK,
		Qcp:                         slices.Clone(me.QC),
		CommitmentConstraintIndexes: ci,
	}, nil
}

// FromGnarkVerifyingKey fills a FamilyCircuit key.
func (me *Vk) FromGnarkVerifyingKey(vk plonk.VerifyingKey) error {
	cvk, ok := vk.(*plonkbls12381.VerifyingKey)
	if !ok {
		return errors.New("verifying key is not a bls12-381 plonk key")
	}
	if bits.OnesCount64(cvk.Size) != 1 {
		return errors.New("vk.size should be power of 2")
	}
	if !cvk.CosetShift.Equal(&COSET_SHIFT) {
		return errors.New("invalid coset shift")
	}
	if len(cvk.Qcp) != len(cvk.CommitmentConstraintIndexes) {
		return errors.New("invalid number of commitments")
	}
	if cvk.NbPublicVariables > 1<<32-1 {
		return errors.New("too many public variables")
	}
	me.SZ = uint8(bits.TrailingZeros64(cvk.Size))
	me.NP = uint32(cvk.NbPublicVariables)
	me.CI = make([]uint32, len(cvk.CommitmentConstraintIndexes))
	for i, v := range cvk.CommitmentConstraintIndexes {
		me.CI[i] = uint32(v)
	}
	me.S1 = cvk.S[0]
	me.S2 = cvk.S[1]
	me.S3 = cvk.S[2]
	me.QL = cvk.Ql
	me.QR = cvk.Qr
	me.QM = cvk.Qm
	me.QO = cvk.Qo
	me.QK = cvk.Qk
	me.QC = slices.Clone(cvk.Qcp)
	me.Kzg = cvk.Kzg
	me.Family = FamilyCircuit
	me.Layout = nil
	return me.validate()
}

func (me *Vk) WriteTo(w io.Writer) (int64, error) {
	enc := bls12381.NewEncoder(w)
	header := []uint64{uint64(me.Family), uint64(me.SZ), uint64(me.NP)}
	ci := make([]uint64, len(me.CI))
	for i := range me.CI {
		ci[i] = uint64(me.CI[i])
	}
	layout := make([]fr.Element, len(me.Layout))
	for i := range me.Layout {
		layout[i] = me.Layout[i].Element()
	}
	toEncode := []interface{}{
		header,
		&me.S1, &me.S2, &me.S3, &me.QL, &me.QR, &me.QM, &me.QO, &me.QK,
		me.QC,
		ci,
		&me.Kzg.G1, &me.Kzg.G2[0], &me.Kzg.G2[1],
		layout,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}
	return enc.BytesWritten(), nil
}

func (me *Vk) ReadFrom(r io.Reader) (int64, error) {
	dec := bls12381.NewDecoder(r)
	var header, ci []uint64
	var layout []fr.Element
	toDecode := []interface{}{
		&header,
		&me.S1, &me.S2, &me.S3, &me.QL, &me.QR, &me.QM, &me.QO, &me.QK,
		&me.QC,
		&ci,
		&me.Kzg.G1, &me.Kzg.G2[0], &me.Kzg.G2[1],
		&layout,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}
	if len(header) != 3 || header[0] > 0xff || header[1] > 0xff || header[2] > 1<<32-1 {
		return dec.BytesRead(), errors.New("invalid key header")
	}
	me.Family = Family(header[0])
	me.SZ = uint8(header[1])
	me.NP = uint32(header[2])
	me.CI = make([]uint32, len(ci))
	for i := range ci {
		if ci[i] > 1<<32-1 {
			return dec.BytesRead(), errors.New("invalid commitment index")
		}
		me.CI[i] = uint32(ci[i])
	}
	me.Layout = nil
	for i := range layout {
		me.Layout = append(me.Layout, KeyIDFromElement(layout[i]))
	}
	me.Kzg.Lines[0] = bls12381.PrecomputeLines(me.Kzg.G2[0])
	me.Kzg.Lines[1] = bls12381.PrecomputeLines(me.Kzg.G2[1])
	return dec.BytesRead(), me.validate()
}
