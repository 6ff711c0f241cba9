// Package store reads and writes records and keys as files.
package store

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/eon-protocol/snarkagg"
)

const (
	RecordExt = ".proof"
	KeyExt    = ".vk"
)

func ReadRecord(path string) (*snarkagg.ProofRecord, error) {
	var record snarkagg.ProofRecord
	if err := read(path, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func WriteRecord(path string, record *snarkagg.ProofRecord) error {
	return write(path, record)
}

func ReadKey(path string) (*snarkagg.Vk, error) {
	var key snarkagg.Vk
	if err := read(path, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

func WriteKey(path string, key *snarkagg.Vk) error {
	return write(path, key)
}

func read(path string, v io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	if _, err := v.ReadFrom(r); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return fmt.Errorf("%s: %w", path, snarkagg.WrapMalformed("file", fmt.Errorf("trailing bytes")))
	}
	return nil
}

func write(path string, v io.WriterTo) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := v.WriteTo(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Discover lists the record files under root in lexical path order, which is
// the batch order. A file root is returned as is.
func Discover(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), RecordExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	return paths, nil
}

func ReadBatch(paths []string) (snarkagg.AggregationBatch, error) {
	batch := make(snarkagg.AggregationBatch, 0, len(paths))
	for _, p := range paths {
		record, err := ReadRecord(p)
		if err != nil {
			return nil, err
		}
		batch = append(batch, record)
	}
	return batch, nil
}

// LoadKeyRing reads every key file directly under dir.
func LoadKeyRing(dir string) (*snarkagg.KeyRing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var keys []*snarkagg.Vk
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), KeyExt) {
			continue
		}
		key, err := ReadKey(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return snarkagg.NewKeyRing(keys...), nil
}

// KeyPath is where a key is stored under dir.
func KeyPath(dir string, key *snarkagg.Vk) string {
	return filepath.Join(dir, key.ID().String()+KeyExt)
}
