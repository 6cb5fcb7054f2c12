package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/EchoTools/tpgtools/pkg/imagefile"
	"github.com/EchoTools/tpgtools/pkg/pixel"
)

// Options configures Extract and Pack.
type Options struct {
	// Workers is the size of the worker pool. Zero means one per CPU.
	Workers int

	// ImageFormat is the format of extracted images. Defaults to PNG.
	ImageFormat imagefile.Format

	// FlipVertical stores image rows in reverse order of the texel rows.
	// Pack must use the same setting as the extraction it reads.
	FlipVertical bool

	// ForceFormat, when set, re-encodes every packed record to this format.
	ForceFormat *pixel.Format

	Logger logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

func (o Options) imageFormat() imagefile.Format {
	if o.ImageFormat == "" {
		return imagefile.PNG
	}
	return o.ImageFormat
}
