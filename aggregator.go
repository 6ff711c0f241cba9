package snarkagg

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/logger"
	lru "github.com/hashicorp/golang-lru"
)

// AggregationInput is one slot of a batch handed to a backend, already
// resolved and decoded.
type AggregationInput struct {
	Record *ProofRecord
	Key    *Vk
	Proof  *Proof
}

// AggregationBackend builds and proves the circuit that attests a batch.
type AggregationBackend interface {
	// Family is the family of the keys Setup produces: FamilyAggregation
	// when the circuit verifies every input, FamilyAttestation otherwise.
	Family() Family
	// Setup compiles the aggregation circuit for keys in slot order.
	Setup(layout []*Vk) (*Pk, error)
	// Prove returns the aggregate proof and its public inputs, which must
	// be digest followed by the slot inputs in order.
	Prove(pk *Pk, inputs []AggregationInput, digest fr.Element) (*Proof, []fr.Element, error)
}

const DefaultProvingKeyCache = 8

// Aggregator composes batches of records into one record. Keys created by
// Prepare are added to its key ring so that aggregates can be aggregated.
type Aggregator struct {
	backend AggregationBackend
	keys    atomic.Pointer[KeyRing]
	pks     *lru.Cache
	size    int

	mu sync.Mutex
}

type AggregatorOption func(*Aggregator)

// WithProvingKeyCache sets how many aggregation proving keys are kept.
func WithProvingKeyCache(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.size = n
		}
	}
}

func NewAggregator(keys *KeyRing, backend AggregationBackend, opts ...AggregatorOption) (*Aggregator, error) {
	if f := backend.Family(); !f.Batch() {
		return nil, fmt.Errorf("backend produces %s keys", f)
	}
	a := &Aggregator{backend: backend, size: DefaultProvingKeyCache}
	for _, opt := range opts {
		opt(a)
	}
	cache, err := lru.New(a.size)
	if err != nil {
		return nil, err
	}
	a.pks = cache
	a.keys.Store(keys.With())
	return a, nil
}

// Keys returns a snapshot of the key ring.
func (me *Aggregator) Keys() *KeyRing {
	return me.keys.Load()
}

func (me *Aggregator) resolve(ids []KeyID) ([]*Vk, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}
	ring := me.Keys()
	keys := make([]*Vk, len(ids))
	for i, id := range ids {
		k, err := ring.Resolve(id)
		if err != nil {
			return nil, WrapKeyResolution(i, id)
		}
		// a sound aggregate must not rest on an attested one
		if k.Family == FamilyAttestation && me.backend.Family() == FamilyAggregation {
			return nil, WrapAttestedInput(i, id)
		}
		keys[i] = k
	}
	return keys, nil
}

// Prepare sets up the aggregation circuit for a sequence of inner keys and
// returns its verifying key.
func (me *Aggregator) Prepare(layout []KeyID) (*Vk, error) {
	keys, err := me.resolve(layout)
	if err != nil {
		return nil, err
	}
	pk, err := me.setup(keys, layout)
	if err != nil {
		return nil, err
	}
	return pk.Vk(), nil
}

func (me *Aggregator) setup(keys []*Vk, layout []KeyID) (*Pk, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	log := logger.Logger().With().Str("component", "aggregator").Int("slots", len(keys)).Logger()
	start := time.Now()
	pk, err := me.backend.Setup(keys)
	if err != nil {
		return nil, WrapCircuitConstruction("setup", err)
	}
	vk := pk.Vk()
	vk.Family = me.backend.Family()
	vk.Layout = slices.Clone(layout)
	if err := vk.validate(); err != nil {
		return nil, WrapCircuitConstruction("setup", err)
	}
	id := vk.ID()
	me.pks.Add(id, pk)
	me.keys.Store(me.Keys().With(vk))
	log.Debug().Str("key", id.String()).Dur("took", time.Since(start)).Msg("aggregation key ready")
	return pk, nil
}

func (me *Aggregator) provingKey(aggKey *Vk, keys []*Vk) (*Pk, error) {
	id := aggKey.ID()
	if v, ok := me.pks.Get(id); ok {
		return v.(*Pk), nil
	}
	pk, err := me.setup(keys, aggKey.Layout)
	if err != nil {
		return nil, err
	}
	if pk.Vk().ID() != id {
		return nil, WrapCircuitConstruction("setup does not reproduce the aggregation key", nil)
	}
	return pk, nil
}

// Aggregate proves that every record of batch verifies under its key. The
// batch order is preserved in the public inputs of the result.
func (me *Aggregator) Aggregate(batch AggregationBatch, aggKey *Vk) (*AggregateProofRecord, error) {
	ids := make([]KeyID, len(batch))
	for i := range batch {
		ids[i] = batch[i].KeyID
	}
	keys, err := me.resolve(ids)
	if err != nil {
		return nil, err
	}
	switch aggKey.Family {
	case FamilyAggregation, FamilyAttestation:
		if aggKey.Family != me.backend.Family() {
			return nil, WrapCircuitConstruction(fmt.Sprintf("backend cannot prove %s keys", aggKey.Family), nil)
		}
		if !slices.Equal(aggKey.Layout, ids) {
			return nil, WrapCircuitConstruction("batch does not match the aggregation key layout", nil)
		}
	case FamilyCircuit:
		return nil, WrapCircuitConstruction("not an aggregation key", nil)
	default:
		return nil, WrapCircuitConstruction(fmt.Sprintf("unknown key family %d", aggKey.Family), nil)
	}
	inputs := make([]AggregationInput, len(batch))
	publics := make([][]fr.Element, len(batch))
	for i, record := range batch {
		if len(record.PublicInputs) != keys[i].Arity() {
			return nil, WrapCircuitConstruction(fmt.Sprintf("slot %d", i), WrapArityMismatch(keys[i].Arity(), len(record.PublicInputs)))
		}
		proof, err := record.Proof()
		if err != nil {
			return nil, WrapCircuitConstruction(fmt.Sprintf("slot %d", i), err)
		}
		if len(proof.BSB) != len(keys[i].QC) {
			return nil, WrapCircuitConstruction(fmt.Sprintf("slot %d", i), WrapMalformed("proof", fmt.Errorf("%d commitments, key has %d", len(proof.BSB), len(keys[i].QC))))
		}
		inputs[i] = AggregationInput{Record: record, Key: keys[i], Proof: proof}
		publics[i] = record.PublicInputs
	}
	digest := BatchDigest(ids, publics)
	pk, err := me.provingKey(aggKey, keys)
	if err != nil {
		return nil, err
	}
	proof, outer, err := me.backend.Prove(pk, inputs, digest)
	if err != nil {
		return nil, WrapCircuitConstruction("prove", err)
	}
	expected := append([]fr.Element{digest}, slices.Concat(publics...)...)
	if !slices.Equal(outer, expected) {
		return nil, WrapCircuitConstruction("backend returned unexpected public inputs", nil)
	}
	return NewRecord(aggKey, outer, proof)
}

// SplitPublicInputs recovers the public inputs of each aggregated record
// from an aggregate, in batch order. The leading digest is checked.
func SplitPublicInputs(aggKey *Vk, record *AggregateProofRecord, keys *KeyRing) ([][]fr.Element, error) {
	if !aggKey.Family.Batch() {
		return nil, fmt.Errorf("%w: not an aggregation key", ErrKeyMismatch)
	}
	if id := aggKey.ID(); record.KeyID != id {
		return nil, WrapKeyMismatch(id, record.KeyID)
	}
	if len(record.PublicInputs) != aggKey.Arity() || aggKey.Arity() == 0 {
		return nil, WrapArityMismatch(aggKey.Arity(), len(record.PublicInputs))
	}
	rest := record.PublicInputs[1:]
	ret := make([][]fr.Element, len(aggKey.Layout))
	for i, id := range aggKey.Layout {
		k, err := keys.Resolve(id)
		if err != nil {
			return nil, WrapKeyResolution(i, id)
		}
		if k.Arity() > len(rest) {
			return nil, WrapArityMismatch(aggKey.Arity(), len(record.PublicInputs))
		}
		ret[i] = slices.Clone(rest[:k.Arity()])
		rest = rest[k.Arity():]
	}
	if len(rest) != 0 {
		return nil, WrapArityMismatch(aggKey.Arity()-len(rest), len(record.PublicInputs))
	}
	digest := BatchDigest(aggKey.Layout, ret)
	if !digest.Equal(&record.PublicInputs[0]) {
		return nil, WrapMalformed("batch_digest", fmt.Errorf("expected %s", digest.String()))
	}
	return ret, nil
}
