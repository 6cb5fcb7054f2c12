package sidecar

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/EchoTools/tpgtools/pkg/tpg"
)

// PackageFile is the name of the package-level sidecar in an extracted
// directory.
const PackageFile = "_archive.json"

// Package is the package-level metadata: the opaque header bytes and the
// number of records at extraction time.
type Package struct {
	Records int    `json:"records"`
	Header  string `json:"header"` // hex
}

// FromArchive builds the package sidecar of an archive.
func FromArchive(a *tpg.Archive) Package {
	return Package{
		Records: a.Len(),
		Header:  hex.EncodeToString(a.Header),
	}
}

// HeaderBytes decodes the stored header bytes.
func (p Package) HeaderBytes() ([]byte, error) {
	b, err := hex.DecodeString(p.Header)
	if err != nil {
		return nil, fmt.Errorf("sidecar: header: %w", err)
	}
	return b, nil
}

// ReadPackage reads a package sidecar. A missing file yields the default
// header of shipped packages and ok == false.
func ReadPackage(path string) (p Package, ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return FromArchive(tpg.New(nil)), false, nil
	}
	if err != nil {
		return Package{}, false, fmt.Errorf("sidecar: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return Package{}, false, fmt.Errorf("sidecar: parse %s: %w", path, err)
	}
	return p, true, nil
}

// WritePackage writes a package sidecar.
func WritePackage(path string, p Package) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("sidecar: encode %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
