package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/EchoTools/tpgtools/pkg/pipeline"
	"github.com/EchoTools/tpgtools/pkg/pixel"
	"github.com/EchoTools/tpgtools/pkg/sidecar"
	"github.com/EchoTools/tpgtools/pkg/tpg"
)

// ExtractCmd extracts packages.
type ExtractCmd struct {
	Input       string `arg:"" help:"Package file, or a directory searched for *.tpg files" type:"existingpath"`
	Output      string `short:"o" help:"Output directory (default: input path without extension)" type:"path"`
	ImageFormat string `name:"image-format" help:"Image format to write (png or webp)"`
	Flip        bool   `help:"Store image rows bottom-up"`
	Force       bool   `help:"Allow a non-empty output directory"`
}

func (c *ExtractCmd) Run(a *app) error {
	info, err := os.Stat(c.Input)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		out := c.Output
		if out == "" {
			out = trimExt(c.Input)
		}
		return c.extract(a, c.Input, out)
	}

	paths, err := pipeline.FindPackages(c.Input)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s files found in %s", pipeline.PackageExt, c.Input)
	}

	a.log.WithField("packages", len(paths)).Info("Found packages")

	var failed int
	for _, path := range paths {
		out := trimExt(path)
		if c.Output != "" {
			rel, err := filepath.Rel(c.Input, path)
			if err != nil {
				return fmt.Errorf("failed to get relative path: %w", err)
			}
			out = filepath.Join(c.Output, trimExt(rel))
		}
		if err := c.extract(a, path, out); err != nil {
			failed++
			a.log.WithField("package", path).WithError(err).Error("Extraction failed")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d packages failed", failed, len(paths))
	}
	return nil
}

func (c *ExtractCmd) extract(a *app, path, out string) error {
	if err := prepareOutputDir(out, c.Force); err != nil {
		return err
	}

	report, err := pipeline.ExtractFile(a.ctx, path, out, a.options())
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	for _, f := range report.Failures {
		a.log.WithFields(logrus.Fields{
			"package": path,
			"index":   f.Index,
			"id":      fmt.Sprintf("%08x", f.IDHash),
		}).Error(f.Err)
	}

	fmt.Fprintf(a.out, "%s: %d/%d textures written to %s\n", path, report.Written, report.Records, out)
	return report.Err()
}

// CreateCmd builds a package from an extracted directory.
type CreateCmd struct {
	Input       string `arg:"" help:"Extracted directory" type:"existingdir"`
	Output      string `arg:"" help:"Package file to write" type:"path"`
	ForceFormat string `name:"force-format" help:"Re-encode every texture to this format"`
	Compress    string `help:"Compress the package (none, zstd or xz)"`
	Flip        bool   `help:"Image rows are stored bottom-up"`
	Force       bool   `help:"Overwrite an existing output file"`
}

func (c *CreateCmd) Run(a *app) error {
	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", c.Output)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	opts := a.options()
	if c.ForceFormat != "" {
		f, err := pixel.ParseFormat(c.ForceFormat)
		if err != nil {
			return err
		}
		opts.ForceFormat = &f
	}

	report, err := pipeline.PackFile(a.ctx, c.Input, c.Output, opts, a.cfg.WriteOptions()...)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s: %d textures, %s of texel data", c.Output, report.Records, humanize.Bytes(uint64(report.Bytes)))
	if len(report.Changed) > 0 {
		fmt.Fprintf(a.out, ", %d edited", len(report.Changed))
	}
	fmt.Fprintln(a.out)
	return nil
}

// InfoCmd lists the textures of a package.
type InfoCmd struct {
	Path    string `arg:"" help:"Package file" type:"existingfile"`
	Digests bool   `help:"Show texel digests"`
}

func (c *InfoCmd) Run(a *app) error {
	archive, err := tpg.ReadFile(c.Path)
	if err != nil {
		return err
	}
	return c.print(a.out, archive)
}

func (c *InfoCmd) print(w io.Writer, archive *tpg.Archive) error {
	fmt.Fprintf(w, "%d textures, %s of texel data, %d header bytes\n\n",
		archive.Len(), humanize.Bytes(uint64(archive.TexelBytes())), len(archive.Header))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "INDEX\tID\tFORMAT\tSIZE\tBYTES"
	if c.Digests {
		header += "\tDIGEST"
	}
	fmt.Fprintln(tw, header)

	for i, r := range archive.Records {
		line := fmt.Sprintf("%d\t%08x\t%s\t%dx%d\t%s", i, r.IDHash, r.Format, r.Width, r.Height, humanize.Bytes(uint64(len(r.Texels))))
		if c.Digests {
			line += "\t" + sidecar.Digest(r.Texels)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// FormatsCmd lists the supported texture formats.
type FormatsCmd struct{}

func (c *FormatsCmd) Run(a *app) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tNAME\tBYTES/TEXEL\tLOSSLESS")
	for _, f := range pixel.Formats {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%v\n", uint32(f), f, pixel.BytesPerTexel(f), f.Lossless())
	}
	return tw.Flush()
}

func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func prepareOutputDir(dir string, force bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if !force {
		empty, err := isDirEmpty(dir)
		if err != nil {
			return fmt.Errorf("check output directory: %w", err)
		}
		if !empty {
			return fmt.Errorf("output directory %s is not empty (use --force to override)", dir)
		}
	}

	return nil
}

func isDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdir(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}
