// Package fileutil provides file reading and writing helpers shared by the
// converters. Input files may be xz-compressed; readers are transparent
// about it. Output files are written atomically via a temp file rename.
package fileutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/lingtools/mausalign/core/errors"
)

// ReadFile reads the file at path. Files ending in .xz are decompressed
// transparently.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	if !strings.HasSuffix(path, ".xz") {
		return data, nil
	}
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewIO("decompress", path, err)
	}
	decompressed, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("decompress", path, err)
	}
	return decompressed, nil
}

// WriteFile writes data to path atomically: it writes to a temp file in the
// same directory and renames it into place.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIO("close", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewIO("rename", path, err)
	}
	return nil
}
