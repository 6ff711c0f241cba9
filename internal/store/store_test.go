package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/snarkagg"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"b.proof", "a.proof", "notes.txt", "sub/c.proof", "sub/deeper/0.proof"} {
		touch(t, filepath.Join(root, p))
	}

	flat, err := Discover(root, false)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "a.proof"), filepath.Join(root, "b.proof")}, flat)

	deep, err := Discover(root, true)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "a.proof"),
		filepath.Join(root, "b.proof"),
		filepath.Join(root, "sub/c.proof"),
		filepath.Join(root, "sub/deeper/0.proof"),
	}, deep)

	single, err := Discover(filepath.Join(root, "notes.txt"), true)
	require.NoError(t, err)
	require.Len(t, single, 1)

	_, err = Discover(filepath.Join(root, "missing"), false)
	require.Error(t, err)
}

func TestRecordsAndKeys(t *testing.T) {
	dir := t.TempDir()
	key := &snarkagg.Vk{Family: snarkagg.FamilyCircuit, NP: 2, SZ: 3, Kzg: snarkagg.SRS_VK}
	require.NoError(t, WriteKey(KeyPath(dir, key), key))

	ring, err := LoadKeyRing(dir)
	require.NoError(t, err)
	got, err := ring.Resolve(key.ID())
	require.NoError(t, err)
	require.Equal(t, key.ID(), got.ID())

	record := &snarkagg.ProofRecord{
		KeyID:        key.ID(),
		PublicInputs: []fr.Element{fr.NewElement(1), fr.NewElement(2)},
		ProofBytes:   []byte{1, 2, 3},
	}
	path := filepath.Join(dir, "0.proof")
	require.NoError(t, WriteRecord(path, record))
	batch, err := ReadBatch([]string{path})
	require.NoError(t, err)
	require.Equal(t, snarkagg.AggregationBatch{record}, batch)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(raw, 0), 0o644))
	_, err = ReadRecord(path)
	require.ErrorIs(t, err, snarkagg.ErrMalformedEncoding)
}
