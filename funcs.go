package snarkagg

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/schollz/progressbar/v3"

	"github.com/eon-protocol/snarkagg/circuits/hasher"
)

// BatchDigest is the leading public input of an aggregate:
// Sum(CID_BATCH, keyIDs..., publics...) with both lists in batch order.
func BatchDigest(keys []KeyID, publics [][]fr.Element) fr.Element {
	vals := []fr.Element{hasher.CID_BATCH}
	for _, id := range keys {
		vals = append(vals, id.Element())
	}
	for _, p := range publics {
		vals = append(vals, p...)
	}
	return hasher.Sum(vals...)
}

// ParseG1 reads size raw points (X then Y, six big-endian limbs each) from
// the SRS cache format.
func ParseG1(raw []byte, size int) (val []bls12381.G1Affine, err error) {
	var g1 bls12381.G1Affine
	buf := make([]byte, 8)
	reader := bytes.NewReader(raw)
	val = make([]bls12381.G1Affine, 0, size)
	for n := 0; n < size; n++ {
		for i := range g1.X {
			if _, err = io.ReadFull(reader, buf); err != nil {
				return
			}
			g1.X[i] = binary.BigEndian.Uint64(buf)
		}
		for i := range g1.Y {
			if _, err = io.ReadFull(reader, buf); err != nil {
				return
			}
			g1.Y[i] = binary.BigEndian.Uint64(buf)
		}
		val = append(val, g1)
	}
	return
}

// WriteG1 is the inverse of ParseG1.
func WriteG1(w io.Writer, points []bls12381.G1Affine) error {
	for _, xy := range points {
		for _, v := range xy.X {
			if err := binary.Write(w, binary.BigEndian, v); err != nil {
				return err
			}
		}
		for _, v := range xy.Y {
			if err := binary.Write(w, binary.BigEndian, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// G1Digest hashes the canonical coordinates of points. It names cached
// Lagrange files and lets them be compared against published sums.
func G1Digest(points []bls12381.G1Affine) string {
	h := sha256.New()
	for _, xy := range points {
		x, y := xy.X.Bytes(), xy.Y.Bytes()
		h.Write(x[:])
		h.Write(y[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func download(url, dst string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: %s", url, resp.Status)
	}
	var buf bytes.Buffer
	bar := progressbar.DefaultBytes(resp.ContentLength, "downloading srs")
	if _, err := io.Copy(io.MultiWriter(&buf, bar), resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), os.WriteFile(dst, buf.Bytes(), 0o644)
}
