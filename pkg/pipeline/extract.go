package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/EchoTools/tpgtools/pkg/imagefile"
	"github.com/EchoTools/tpgtools/pkg/sidecar"
	"github.com/EchoTools/tpgtools/pkg/tpg"
)

// Failure is a record that could not be processed.
type Failure struct {
	Index  int
	IDHash uint32
	Err    error
}

// Report summarises an extraction.
type Report struct {
	Records  int
	Written  int
	Bytes    int // texel bytes of the written records
	Failures []Failure
}

// Err returns nil when every record was extracted, and an ErrPartial error
// naming the first failure otherwise.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return ErrPartial.Wrap(r.Failures[0].Err, len(r.Failures), r.Records)
}

// ExtractFile reads the package at path and extracts it into dir.
func ExtractFile(ctx context.Context, path, dir string, opts Options) (*Report, error) {
	a, err := tpg.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Extract(ctx, a, dir, opts)
}

// Extract writes one image and one sidecar per record of a into dir, plus
// the package sidecar. Records that fail are listed in the report and do
// not stop the others.
func Extract(ctx context.Context, a *tpg.Archive, dir string, opts Options) (*Report, error) {
	log := opts.logger()
	format := opts.imageFormat()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := sidecar.WritePackage(filepath.Join(dir, sidecar.PackageFile), sidecar.FromArchive(a)); err != nil {
		return nil, fmt.Errorf("write package sidecar: %w", err)
	}

	errs, err := forEach(ctx, opts.Workers, a.Len(), func(_ context.Context, i int) error {
		return extractRecord(a.Records[i], i, dir, format, opts.FlipVertical, log)
	})
	if err != nil {
		return nil, err
	}

	report := &Report{Records: a.Len()}
	for i, err := range errs {
		r := a.Records[i]
		if err != nil {
			report.Failures = append(report.Failures, Failure{Index: i, IDHash: r.IDHash, Err: err})
			log.WithFields(logrus.Fields{
				"index": i,
				"id":    fmt.Sprintf("%08x", r.IDHash),
			}).WithError(err).Warn("Skipping texture")
			continue
		}
		report.Written++
		report.Bytes += len(r.Texels)
	}

	log.WithFields(logrus.Fields{
		"dir":     dir,
		"written": report.Written,
		"failed":  len(report.Failures),
		"texels":  humanize.Bytes(uint64(report.Bytes)),
		"format":  format,
		"flipped": opts.FlipVertical,
	}).Info("Extraction complete")

	return report, nil
}

func extractRecord(r tpg.Record, index int, dir string, format imagefile.Format, flip bool, log logrus.FieldLogger) error {
	pix, err := r.RGBA()
	if err != nil {
		return ErrDecode.Wrap(err, index, r.IDHash)
	}
	if flip {
		flipRows(pix, int(r.Width), int(r.Height))
	}

	base := filepath.Join(dir, BaseName(index, r.IDHash))
	if err := imagefile.WriteFile(base+format.Ext(), pix, int(r.Width), int(r.Height), format); err != nil {
		return tpg.ErrRecord.Wrap(err, index, r.IDHash)
	}
	if err := sidecar.WriteFile(base+sidecar.Ext, sidecar.FromRecord(r)); err != nil {
		return tpg.ErrRecord.Wrap(err, index, r.IDHash)
	}

	log.WithFields(logrus.Fields{
		"index":  index,
		"id":     fmt.Sprintf("%08x", r.IDHash),
		"format": r.Format,
		"size":   fmt.Sprintf("%dx%d", r.Width, r.Height),
	}).Debug("Extracted texture")
	return nil
}

// flipRows reverses the row order of an RGBA8888 buffer in place.
func flipRows(pix []byte, width, height int) {
	stride := width * 4
	tmp := make([]byte, stride)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
