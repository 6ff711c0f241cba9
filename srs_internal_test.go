package snarkagg

import (
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLagrangeCacheKeyedByPoints(t *testing.T) {
	dir := t.TempDir()
	unsafeSRS := func(tau int64) *SRS {
		s, err := NewUnsafeSRS(35, big.NewInt(tau))
		require.NoError(t, err)
		s.cacheDir = dir
		return s
	}

	_, la, err := unsafeSRS(7).ProvingKeys(35, 32)
	require.NoError(t, err)
	_, lb, err := unsafeSRS(8).ProvingKeys(35, 32)
	require.NoError(t, err)
	require.NotEqual(t, la.G1, lb.G1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// same points, served from the file written first
	_, lc, err := unsafeSRS(7).ProvingKeys(35, 32)
	require.NoError(t, err)
	require.Equal(t, la.G1, lc.G1)
}
