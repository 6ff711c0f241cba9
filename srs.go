package snarkagg

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"os"
	"path/filepath"
	"sync"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/consensys/gnark/logger"
)

// SRS is a KZG setup shared by every key compiled against it. Lagrange
// forms are derived on demand and cached, in memory and in CacheDir when set.
type SRS struct {
	ck       kzg.ProvingKey
	vk       kzg.VerifyingKey
	cacheDir string

	mu sync.Mutex
	lk map[int]kzg.ProvingKey
}

// SRSConfig selects where the canonical points come from. Path wins over
// URL; URL downloads are cached as CacheDir/SRS.CK.BIN and checked against
// SHA256 when it is set.
type SRSConfig struct {
	Path     string
	URL      string
	SHA256   string
	CacheDir string
	Size     int
}

// NewUnsafeSRS builds an SRS from a known τ. For tests only.
func NewUnsafeSRS(size uint64, tau *big.Int) (*SRS, error) {
	s, err := kzg.NewSRS(size, tau)
	if err != nil {
		return nil, err
	}
	return &SRS{ck: s.Pk, vk: s.Vk, lk: make(map[int]kzg.ProvingKey)}, nil
}

// NewSRS checks that ck starts with vk.G1 and that ck[1] = τ·ck[0] for the
// τ committed in vk.G2[1].
func NewSRS(ck []bls12381.G1Affine, vk kzg.VerifyingKey) (*SRS, error) {
	if len(ck) < 2 {
		return nil, errors.New("srs needs at least two points")
	}
	if !ck[0].Equal(&vk.G1) {
		return nil, errors.New("srs does not start with the verifying key generator")
	}
	var neg bls12381.G1Affine
	neg.Neg(&ck[0])
	ok, err := bls12381.PairingCheck([]bls12381.G1Affine{ck[1], neg}, []bls12381.G2Affine{vk.G2[0], vk.G2[1]})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("srs is inconsistent with the verifying key")
	}
	return &SRS{ck: kzg.ProvingKey{G1: ck}, vk: vk, lk: make(map[int]kzg.ProvingKey)}, nil
}

// LoadSRS reads the ceremony points described by cfg. The verifying key is
// SRS_VK.
func LoadSRS(cfg SRSConfig) (*SRS, error) {
	log := logger.Logger().With().Str("component", "srs").Logger()
	src := cfg.Path
	if src == "" {
		if cfg.CacheDir == "" {
			return nil, errors.New("srs: neither a path nor a cache directory is configured")
		}
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, err
		}
		src = filepath.Join(cfg.CacheDir, "SRS.CK.BIN")
	}
	raw, err := os.ReadFile(src)
	if err != nil || (cfg.SHA256 != "" && sha256Hex(raw) != cfg.SHA256) {
		if cfg.Path != "" && err != nil {
			return nil, err
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("srs: %s missing or corrupt and no url configured", src)
		}
		log.Info().Str("url", cfg.URL).Str("dst", src).Msg("local srs cache not found; downloading")
		if raw, err = download(cfg.URL, src); err != nil {
			return nil, err
		}
		if cfg.SHA256 != "" && sha256Hex(raw) != cfg.SHA256 {
			return nil, errors.New("srs: downloaded file does not match the configured sha256")
		}
	}
	size := len(raw) / G1_RAW_SIZE
	if cfg.Size > 0 && cfg.Size < size {
		size = cfg.Size
	}
	ck, err := ParseG1(raw, size)
	if err != nil {
		return nil, err
	}
	s, err := NewSRS(ck, SRS_VK)
	if err != nil {
		return nil, err
	}
	s.cacheDir = cfg.CacheDir
	log.Debug().Int("points", size).Msg("srs loaded")
	return s, nil
}

func (s *SRS) VerifyingKey() kzg.VerifyingKey {
	return s.vk
}

// Pins reports whether key was set up against this SRS.
func (s *SRS) Pins(key *Vk) bool {
	return key.Kzg.G1.Equal(&s.vk.G1) && key.Kzg.G2[0].Equal(&s.vk.G2[0]) && key.Kzg.G2[1].Equal(&s.vk.G2[1])
}

func (s *SRS) Size() int {
	return len(s.ck.G1)
}

// ProvingKeys returns the canonical prefix of size sc and the Lagrange form
// of size sl, as plonk.Setup expects them (see plonk.SRSSize).
func (s *SRS) ProvingKeys(sc, sl int) (ck kzg.ProvingKey, lk kzg.ProvingKey, err error) {
	if sc > len(s.ck.G1) || sl > len(s.ck.G1) {
		err = fmt.Errorf("srs has %d points, circuit needs %d", len(s.ck.G1), max(sc, sl))
		return
	}
	if bits.OnesCount(uint(sl)) != 1 {
		err = errors.New("lagrange size must be a power of two")
		return
	}
	ck.G1 = s.ck.G1[:sc]

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.lk[sl]; ok {
		return ck, cached, nil
	}
	if lk.G1, err = s.lagrange(sl); err != nil {
		return
	}
	s.lk[sl] = lk
	return
}

func (s *SRS) lagrange(sl int) ([]bls12381.G1Affine, error) {
	var path string
	if s.cacheDir != "" {
		// keyed by the canonical prefix, so a cache shared by two ceremonies
		// never serves one the other's Lagrange points
		tag := G1Digest(s.ck.G1[:sl])[:16]
		path = filepath.Join(s.cacheDir, fmt.Sprintf("SRS.LK.%v.%s.BIN", bits.TrailingZeros(uint(sl)), tag))
		if raw, err := os.ReadFile(path); err == nil && len(raw) == sl*G1_RAW_SIZE {
			return ParseG1(raw, sl)
		}
	}
	lk, err := kzg.ToLagrangeG1(s.ck.G1[:sl])
	if err != nil {
		return nil, err
	}
	if path != "" {
		var buf bytes.Buffer
		if err := WriteG1(&buf, lk); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, err
		}
	}
	return lk, nil
}
