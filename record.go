package snarkagg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// MaxProofSize bounds the proof bytes accepted when reading a record.
const MaxProofSize = 1 << 20

// ProofRecord is the unit of verification: a proof together with the key it
// was produced for and its public inputs, in circuit order.
type ProofRecord struct {
	KeyID        KeyID
	PublicInputs []fr.Element
	ProofBytes   []byte
}

// AggregationBatch is an ordered, non-empty sequence of records.
type AggregationBatch []*ProofRecord

// AggregateProofRecord is the output of aggregation. Its KeyID names an
// aggregation key and its public inputs start with the batch digest.
type AggregateProofRecord = ProofRecord

func NewRecord(key *Vk, publics []fr.Element, proof *Proof) (*ProofRecord, error) {
	raw, err := proof.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &ProofRecord{
		KeyID:        key.ID(),
		PublicInputs: slices.Clone(publics),
		ProofBytes:   raw,
	}, nil
}

func (me *ProofRecord) Proof() (*Proof, error) {
	var proof Proof
	if err := proof.UnmarshalBinary(me.ProofBytes); err != nil {
		return nil, WrapMalformed("proof", err)
	}
	return &proof, nil
}

func (me *ProofRecord) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.Write(me.KeyID[:])
	binary.Write(&buf, binary.BigEndian, uint32(len(me.PublicInputs)))
	for i := range me.PublicInputs {
		b := me.PublicInputs[i].Bytes()
		buf.Write(b[:])
	}
	binary.Write(&buf, binary.BigEndian, uint32(len(me.ProofBytes)))
	buf.Write(me.ProofBytes)
	return buf.WriteTo(w)
}

func (me *ProofRecord) ReadFrom(r io.Reader) (int64, error) {
	var n int64
	read := func(b []byte) error {
		m, err := io.ReadFull(r, b)
		n += int64(m)
		return err
	}
	var u32 [4]byte
	if err := read(me.KeyID[:]); err != nil {
		return n, WrapMalformed("verification_key_id", err)
	}
	if err := read(u32[:]); err != nil {
		return n, WrapMalformed("public_inputs", err)
	}
	np := binary.BigEndian.Uint32(u32[:])
	me.PublicInputs = nil
	var b [fr.Bytes]byte
	for i := uint32(0); i < np; i++ {
		if err := read(b[:]); err != nil {
			return n, WrapMalformed("public_inputs", err)
		}
		var e fr.Element
		if err := e.SetBytesCanonical(b[:]); err != nil {
			return n, WrapMalformed("public_inputs", err)
		}
		me.PublicInputs = append(me.PublicInputs, e)
	}
	if err := read(u32[:]); err != nil {
		return n, WrapMalformed("proof", err)
	}
	size := binary.BigEndian.Uint32(u32[:])
	if size > MaxProofSize {
		return n, WrapMalformed("proof", errors.New("proof too large"))
	}
	me.ProofBytes = make([]byte, size)
	if err := read(me.ProofBytes); err != nil {
		return n, WrapMalformed("proof", err)
	}
	return n, nil
}
