package snarkagg_test

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/snarkagg"
)

func TestNewSRSChecksConsistency(t *testing.T) {
	s, err := kzg.NewSRS(16, big.NewInt(3))
	require.NoError(t, err)
	_, err = snarkagg.NewSRS(s.Pk.G1, s.Vk)
	require.NoError(t, err)

	other, err := kzg.NewSRS(16, big.NewInt(4))
	require.NoError(t, err)
	_, err = snarkagg.NewSRS(s.Pk.G1, other.Vk)
	require.Error(t, err)
}

func TestRawPointsRoundTrip(t *testing.T) {
	s, err := kzg.NewSRS(8, big.NewInt(5))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, snarkagg.WriteG1(&buf, s.Pk.G1))
	require.Equal(t, len(s.Pk.G1)*snarkagg.G1_RAW_SIZE, buf.Len())
	points, err := snarkagg.ParseG1(buf.Bytes(), len(s.Pk.G1))
	require.NoError(t, err)
	require.Equal(t, s.Pk.G1, points)

	_, err = snarkagg.ParseG1(buf.Bytes()[:buf.Len()-1], len(s.Pk.G1))
	require.Error(t, err)
}

func TestProvingKeysCacheLagrange(t *testing.T) {
	srs, err := snarkagg.NewUnsafeSRS(35, big.NewInt(7))
	require.NoError(t, err)
	ck, lk, err := srs.ProvingKeys(35, 32)
	require.NoError(t, err)
	require.Len(t, ck.G1, 35)
	require.Len(t, lk.G1, 32)

	_, again, err := srs.ProvingKeys(20, 32)
	require.NoError(t, err)
	require.Equal(t, lk.G1, again.G1)
	require.Len(t, snarkagg.G1Digest(lk.G1), 64)
	require.NotEqual(t, snarkagg.G1Digest(lk.G1), snarkagg.G1Digest(ck.G1[:32]))

	_, _, err = srs.ProvingKeys(35, 24)
	require.Error(t, err)
	_, _, err = srs.ProvingKeys(64, 32)
	require.Error(t, err)

	// the commitment to a constant is the same in both bases
	var sum bls12381.G1Jac
	for i := range lk.G1 {
		sum.AddMixed(&lk.G1[i])
	}
	var got bls12381.G1Affine
	got.FromJacobian(&sum)
	require.True(t, got.Equal(&ck.G1[0]))
}

func TestLoadSRSFromPath(t *testing.T) {
	dir := t.TempDir()
	s, err := kzg.NewSRS(16, big.NewInt(9))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, snarkagg.WriteG1(&buf, s.Pk.G1))
	path := filepath.Join(dir, "points.bin")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	// the file is not the ceremony, so it does not match SRS_VK
	_, err = snarkagg.LoadSRS(snarkagg.SRSConfig{Path: path})
	require.Error(t, err)

	_, err = snarkagg.LoadSRS(snarkagg.SRSConfig{Path: filepath.Join(dir, "missing.bin")})
	require.Error(t, err)
	_, err = snarkagg.LoadSRS(snarkagg.SRSConfig{CacheDir: dir})
	require.Error(t, err)
}
