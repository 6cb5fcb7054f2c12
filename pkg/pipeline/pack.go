package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/EchoTools/tpgtools/pkg/imagefile"
	"github.com/EchoTools/tpgtools/pkg/pixel"
	"github.com/EchoTools/tpgtools/pkg/sidecar"
	"github.com/EchoTools/tpgtools/pkg/tpg"
)

// PackReport summarises a pack.
type PackReport struct {
	Records int
	Bytes   int // texel bytes written

	// Changed lists the positions of records whose texels differ from the
	// digest recorded at extraction time.
	Changed []int

	// HeaderRestored is false when the directory had no package sidecar and
	// the default header was used.
	HeaderRestored bool
}

// PackFile packs dir and writes the package to path.
func PackFile(ctx context.Context, dir, path string, opts Options, writeOpts ...tpg.WriteOption) (*PackReport, error) {
	a, report, err := Pack(ctx, dir, opts)
	if err != nil {
		return nil, err
	}
	if err := tpg.WriteFile(path, a, writeOpts...); err != nil {
		return nil, err
	}

	opts.logger().WithFields(logrus.Fields{
		"path":    path,
		"records": report.Records,
		"texels":  humanize.Bytes(uint64(report.Bytes)),
	}).Info("Package written")
	return report, nil
}

// Pack builds an archive from an extracted directory. Any failing texture
// fails the whole pack.
func Pack(ctx context.Context, dir string, opts Options) (*tpg.Archive, *PackReport, error) {
	log := opts.logger()

	if opts.ForceFormat != nil && !opts.ForceFormat.Valid() {
		return nil, nil, pixel.ErrUnsupportedFormat.New(uint32(*opts.ForceFormat))
	}

	pkg, ok, err := sidecar.ReadPackage(filepath.Join(dir, sidecar.PackageFile))
	if err != nil {
		return nil, nil, err
	}
	header, err := pkg.HeaderBytes()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		log.WithField("dir", dir).Warn("No package sidecar, using default header")
	}

	pairs, err := ScanDir(dir)
	if err != nil {
		return nil, nil, err
	}
	if ok && pkg.Records != len(pairs) {
		log.WithFields(logrus.Fields{
			"extracted": pkg.Records,
			"found":     len(pairs),
		}).Warn("Texture count differs from extraction")
	}

	records := make([]tpg.Record, len(pairs))
	changed := make([]bool, len(pairs))

	_, err = forEach(ctx, opts.Workers, len(pairs), func(_ context.Context, i int) error {
		r, edited, err := packPair(pairs[i], opts)
		if err != nil {
			return fatal{err}
		}
		records[i] = r
		changed[i] = edited

		log.WithFields(logrus.Fields{
			"name":   pairs[i].Name,
			"format": r.Format,
			"edited": edited,
		}).Debug("Packed texture")
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	a := &tpg.Archive{Header: header, Records: records}
	report := &PackReport{
		Records:        a.Len(),
		Bytes:          a.TexelBytes(),
		HeaderRestored: ok,
	}
	for i, c := range changed {
		if c {
			report.Changed = append(report.Changed, i)
		}
	}

	log.WithFields(logrus.Fields{
		"dir":     dir,
		"records": report.Records,
		"changed": len(report.Changed),
	}).Info("Pack complete")

	return a, report, nil
}

// packPair builds the record of one pair and reports whether its texels
// differ from the sidecar digest.
func packPair(p Pair, opts Options) (tpg.Record, bool, error) {
	sc, err := sidecar.ReadFile(p.Sidecar)
	if err != nil {
		return tpg.Record{}, false, err
	}

	pix, w, h, err := imagefile.ReadFile(p.Image)
	if err != nil {
		return tpg.Record{}, false, err
	}
	if w == 0 || h == 0 {
		return tpg.Record{}, false, fmt.Errorf("%s: empty image", p.Image)
	}
	if sc.Width != 0 || sc.Height != 0 {
		if uint32(w) != sc.Width || uint32(h) != sc.Height {
			return tpg.Record{}, false, ErrDimensionMismatch.New(p.Name, w, h, sc.Width, sc.Height)
		}
	}

	if opts.FlipVertical {
		flipRows(pix, w, h)
	}

	format := sc.Format
	if opts.ForceFormat != nil {
		format = *opts.ForceFormat
	}

	texels, err := pixel.Encode(format, uint32(w), uint32(h), pix)
	if err != nil {
		return tpg.Record{}, false, ErrEncode.Wrap(err, p.Name)
	}

	edited := sc.TexelDigest != "" && format == sc.Format && sidecar.Digest(texels) != sc.TexelDigest
	return sc.Record(format, uint32(w), uint32(h), texels), edited, nil
}
