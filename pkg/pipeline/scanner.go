package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/EchoTools/tpgtools/pkg/imagefile"
	"github.com/EchoTools/tpgtools/pkg/sidecar"
)

// PackageExt is the file extension of texture packages.
const PackageExt = ".tpg"

// Pair is one texture of an extracted directory: a sidecar and its image.
type Pair struct {
	Name    string // base name shared by both files
	Sidecar string
	Image   string
}

// BaseName returns the file name stem used for the record at position index.
// The position prefix keeps directory order equal to archive order and keeps
// duplicate ids apart.
func BaseName(index int, id uint32) string {
	return fmt.Sprintf("%04d_%08x", index, id)
}

// ScanDir pairs the sidecars and images of an extracted directory. Pairs are
// ordered by the numeric position prefix of their names, then by name.
// Subdirectories and unrelated files are ignored.
func ScanDir(dir string) ([]Pair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	sidecars := make(map[string]string)
	images := make(map[string]string)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == sidecar.PackageFile {
			continue
		}
		path := filepath.Join(dir, name)
		stem := strings.TrimSuffix(name, filepath.Ext(name))

		switch {
		case strings.EqualFold(filepath.Ext(name), sidecar.Ext):
			sidecars[stem] = path
		case imagefile.IsImage(name):
			if prev, ok := images[stem]; ok {
				return nil, ErrDuplicateImage.New(stem, filepath.Base(prev), name)
			}
			images[stem] = path
		}
	}

	pairs := make([]Pair, 0, len(sidecars))
	for stem, sc := range sidecars {
		img, ok := images[stem]
		if !ok {
			return nil, ErrMissingPair.New(sc, "image")
		}
		pairs = append(pairs, Pair{Name: stem, Sidecar: sc, Image: img})
	}
	for stem, img := range images {
		if _, ok := sidecars[stem]; !ok {
			return nil, ErrMissingPair.New(img, "sidecar")
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairLess(pairs[i].Name, pairs[j].Name)
	})
	return pairs, nil
}

func pairLess(a, b string) bool {
	ai, aok := position(a)
	bi, bok := position(b)
	switch {
	case aok && bok && ai != bi:
		return ai < bi
	case aok != bok:
		return aok
	}
	return a < b
}

// position parses the decimal prefix before the first underscore.
func position(name string) (int, bool) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// FindPackages walks root and returns every texture package below it in
// lexical order.
func FindPackages(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), PackageExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find packages: %w", err)
	}

	return paths, nil
}
