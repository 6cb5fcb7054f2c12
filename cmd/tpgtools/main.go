// Package main provides a command-line tool for working with .tpg texture
// packages.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/EchoTools/tpgtools/internal/config"
	"github.com/EchoTools/tpgtools/internal/logging"
	"github.com/EchoTools/tpgtools/pkg/imagefile"
	"github.com/EchoTools/tpgtools/pkg/pipeline"
)

const version = "0.2.0"

// CLI defines the command-line interface.
type CLI struct {
	Config    string `name:"config" short:"c" help:"JSON config file" type:"existingfile"`
	Workers   int    `help:"Worker count (default: one per CPU)"`
	LogLevel  string `name:"log-level" help:"Log level (panic, fatal, error, warn, info, debug, trace)"`
	LogFormat string `name:"log-format" help:"Log format (text or json)"`

	Extract ExtractCmd `cmd:"" help:"Extract a package, or every package under a directory, to images and sidecars"`
	Create  CreateCmd  `cmd:"" help:"Build a package from an extracted directory"`
	Info    InfoCmd    `cmd:"" help:"List the textures of a package"`
	Formats FormatsCmd `cmd:"" help:"List the supported texture formats"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// app is the state shared by all commands.
type app struct {
	ctx context.Context
	cfg config.Config
	log *logrus.Logger
	out io.Writer
}

func (a *app) options() pipeline.Options {
	format, _ := imagefile.ParseFormat(a.cfg.ImageFormat)
	return pipeline.Options{
		Workers:      a.cfg.Workers,
		ImageFormat:  format,
		FlipVertical: a.cfg.FlipVertical,
		Logger:       a.log,
	}
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("tpgtools"),
		kong.Description("Extract and build .tpg texture packages"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, &cli, commandFlags(&cli))
	kctx.FatalIfErrorf(err)

	err = kctx.Run(a)
	kctx.FatalIfErrorf(err)
}

// commandFlags collects the settings flags of the commands. Flags of
// commands that were not selected are left at their zero values.
func commandFlags(cli *CLI) config.Flags {
	return config.Flags{
		ImageFormat:  cli.Extract.ImageFormat,
		FlipVertical: cli.Extract.Flip || cli.Create.Flip,
		Compression:  cli.Create.Compress,
	}
}

func newApp(ctx context.Context, cli *CLI, flags config.Flags) (*app, error) {
	var cfg config.Config
	if cli.Config != "" {
		loaded, err := config.Load(cli.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags.Workers = cli.Workers
	flags.LogLevel = cli.LogLevel
	flags.LogFormat = cli.LogFormat
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	return &app{ctx: ctx, cfg: cfg, log: log, out: os.Stdout}, nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.out, "tpgtools %s\n", version)
	return nil
}
