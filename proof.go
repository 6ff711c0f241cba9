package snarkagg

import (
	"bytes"
	"errors"
	"io"
	"slices"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/consensys/gnark/backend/plonk"
	plonkbls12381 "github.com/consensys/gnark/backend/plonk/bls12-381"
)

// Proof is the structured form of a record's proof bytes.
//
//	CW1..CW3  wire commitments (l, r, o)
//	CPZ       permutation accumulator Z
//	CH1..CH3  split quotient
//	BSB       BSB22 commitments, one per Qcp of the key
//	HBP       quotient of the batched opening at ζ
//	HZO       quotient of the opening of Z at ωζ
//	COL       linearised polynomial at ζ
//	CVL..CS2  l, r, o, s1, s2 at ζ
//	CQC       Qcp_i at ζ
//	CZO       Z(ωζ)
type Proof struct {
	CW1, CW2, CW3, CPZ, CH1, CH2, CH3, HBP, HZO bls12381.G1Affine
	BSB                                         []bls12381.G1Affine
	COL, CVL, CVR, CVO, CS1, CS2, CZO           fr.Element
	CQC                                         []fr.Element
}

func (me *Proof) ToGnarkProof() plonk.Proof {
	claimed := append([]fr.Element{me.COL, me.CVL, me.CVR, me.CVO, me.CS1, me.CS2}, me.CQC...)
	return &plonkbls12381.Proof{
		LRO:              [3]bls12381.G1Affine{me.CW1, me.CW2, me.CW3},
		Z:                me.CPZ,
		H:                [3]bls12381.G1Affine{me.CH1, me.CH2, me.CH3},
		Bsb22Commitments: slices.Clone(me.BSB),
		BatchedProof: kzg.BatchOpeningProof{
			H:             me.HBP,
			ClaimedValues: claimed,
		},
		ZShiftedOpening: kzg.OpeningProof{
			H:            me.HZO,
			ClaimedValue: me.CZO,
		},
	}
}

func (me *Proof) FromGnarkProof(proof plonk.Proof) error {
	gp, ok := proof.(*plonkbls12381.Proof)
	if !ok {
		return errors.New("proof is not a bls12-381 plonk proof")
	}
	if len(gp.BatchedProof.ClaimedValues) != 6+len(gp.Bsb22Commitments) {
		return errors.New("claimed values do not match the number of commitments")
	}
	me.CW1 = gp.LRO[0]
	me.CW2 = gp.LRO[1]
	me.CW3 = gp.LRO[2]
	me.CH1 = gp.H[0]
	me.CH2 = gp.H[1]
	me.CH3 = gp.H[2]
	me.CPZ = gp.Z
	me.BSB = slices.Clone(gp.Bsb22Commitments)
	me.HBP = gp.BatchedProof.H
	me.HZO = gp.ZShiftedOpening.H
	me.CZO = gp.ZShiftedOpening.ClaimedValue
	me.COL = gp.BatchedProof.ClaimedValues[0]
	me.CVL = gp.BatchedProof.ClaimedValues[1]
	me.CVR = gp.BatchedProof.ClaimedValues[2]
	me.CVO = gp.BatchedProof.ClaimedValues[3]
	me.CS1 = gp.BatchedProof.ClaimedValues[4]
	me.CS2 = gp.BatchedProof.ClaimedValues[5]
	me.CQC = slices.Clone(gp.BatchedProof.ClaimedValues[6:])
	return nil
}

// MaxCommitments bounds the BSB22 commitment count a proof may carry. The
// count is encoded on one byte ahead of the points.
const MaxCommitments = 255

func (me *Proof) WriteTo(w io.Writer) (int64, error) {
	if len(me.BSB) > MaxCommitments || len(me.CQC) != len(me.BSB) {
		return 0, errors.New("invalid number of commitments")
	}
	if n, err := w.Write([]byte{byte(len(me.BSB))}); err != nil {
		return int64(n), err
	}
	enc := bls12381.NewEncoder(w)
	for _, v := range me.encodingOrder() {
		if err := enc.Encode(v); err != nil {
			return 1 + enc.BytesWritten(), err
		}
	}
	return 1 + enc.BytesWritten(), nil
}

func (me *Proof) ReadFrom(r io.Reader) (int64, error) {
	var nb [1]byte
	if n, err := io.ReadFull(r, nb[:]); err != nil {
		return int64(n), err
	}
	me.BSB = make([]bls12381.G1Affine, nb[0])
	me.CQC = make([]fr.Element, nb[0])
	dec := bls12381.NewDecoder(r)
	for _, v := range me.encodingOrder() {
		if err := dec.Decode(v); err != nil {
			return 1 + dec.BytesRead(), err
		}
	}
	return 1 + dec.BytesRead(), nil
}

func (me *Proof) encodingOrder() []interface{} {
	ret := []interface{}{&me.CW1, &me.CW2, &me.CW3, &me.CPZ, &me.CH1, &me.CH2, &me.CH3, &me.HBP, &me.HZO}
	for i := range me.BSB {
		ret = append(ret, &me.BSB[i])
	}
	ret = append(ret, &me.COL, &me.CVL, &me.CVR, &me.CVO, &me.CS1, &me.CS2, &me.CZO)
	for i := range me.CQC {
		ret = append(ret, &me.CQC[i])
	}
	return ret
}

func (me *Proof) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := me.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a proof and rejects trailing bytes. Points are
// checked to be on the curve and in the prime-order subgroup.
func (me *Proof) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	if _, err := me.ReadFrom(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return errors.New("trailing bytes after proof")
	}
	return nil
}
