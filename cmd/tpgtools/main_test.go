package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/tpgtools/internal/config"
	"github.com/EchoTools/tpgtools/pkg/archive"
	"github.com/EchoTools/tpgtools/pkg/pixel"
	"github.com/EchoTools/tpgtools/pkg/tpg"
)

func testApp(t *testing.T, cfg config.Config) (*app, *bytes.Buffer) {
	t.Helper()
	cfg.Resolve(config.Flags{Workers: 2})
	require.NoError(t, cfg.Validate())

	logger, _ := test.NewNullLogger()
	var out bytes.Buffer
	return &app{ctx: context.Background(), cfg: cfg, log: logger, out: &out}, &out
}

func writePackage(t *testing.T, path string) *tpg.Archive {
	t.Helper()
	a := tpg.New([]tpg.Record{
		{IDHash: 0x1A2B3C4D, Format: pixel.R8G8B8A8, Width: 2, Height: 2, Texels: bytes.Repeat([]byte{0x7F}, 16)},
		{IDHash: 0x00C0FFEE, Format: pixel.R5G6B5, Width: 3, Height: 1, Texels: []byte{1, 2, 3, 4, 5, 6}},
	})
	require.NoError(t, tpg.WriteFile(path, a))
	return a
}

func TestExtractAndCreate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ui.tpg")
	want := writePackage(t, src)

	a, out := testApp(t, config.Config{})
	require.NoError(t, (&ExtractCmd{Input: src}).Run(a))
	assert.Contains(t, out.String(), "2/2 textures")
	assert.FileExists(t, filepath.Join(dir, "ui", "0000_1a2b3c4d.png"))

	err := (&ExtractCmd{Input: src}).Run(a)
	assert.ErrorContains(t, err, "not empty")

	dst := filepath.Join(dir, "rebuilt.tpg")
	require.NoError(t, (&CreateCmd{Input: filepath.Join(dir, "ui"), Output: dst}).Run(a))

	got, err := tpg.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	err = (&CreateCmd{Input: filepath.Join(dir, "ui"), Output: dst}).Run(a)
	assert.ErrorContains(t, err, "already exists")
}

func TestCreateForceFormatCompressed(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ui.tpg")
	writePackage(t, src)

	a, _ := testApp(t, config.Config{Compression: "zstd"})
	require.NoError(t, (&ExtractCmd{Input: src, Output: filepath.Join(dir, "x")}).Run(a))

	dst := filepath.Join(dir, "out.tpg")
	require.NoError(t, (&CreateCmd{Input: filepath.Join(dir, "x"), Output: dst, ForceFormat: "rgba4444"}).Run(a))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, archive.IsEnvelope(data))

	got, err := tpg.ReadFile(dst)
	require.NoError(t, err)
	for _, r := range got.Records {
		assert.Equal(t, pixel.R4G4B4A4, r.Format)
	}

	err = (&CreateCmd{Input: filepath.Join(dir, "x"), Output: dst, ForceFormat: "dxt1", Force: true}).Run(a)
	assert.Error(t, err)
}

func TestExtractDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "menu"), 0755))
	writePackage(t, filepath.Join(root, "a.tpg"))
	writePackage(t, filepath.Join(root, "menu", "b.tpg"))

	a, _ := testApp(t, config.Config{ImageFormat: "webp"})
	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, (&ExtractCmd{Input: root, Output: out}).Run(a))

	assert.FileExists(t, filepath.Join(out, "a", "0001_00c0ffee.webp"))
	assert.FileExists(t, filepath.Join(out, "menu", "b", "0000_1a2b3c4d.webp"))

	err := (&ExtractCmd{Input: t.TempDir()}).Run(a)
	assert.ErrorContains(t, err, "no .tpg files")
}

func TestInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui.tpg")
	writePackage(t, path)

	a, out := testApp(t, config.Config{})
	require.NoError(t, (&InfoCmd{Path: path, Digests: true}).Run(a))

	s := out.String()
	assert.Contains(t, s, "2 textures")
	assert.Contains(t, s, "1a2b3c4d")
	assert.Contains(t, s, "R5G6B5")
	assert.Contains(t, s, "DIGEST")
}

func TestFormats(t *testing.T) {
	a, out := testApp(t, config.Config{})
	require.NoError(t, (&FormatsCmd{}).Run(a))
	for _, f := range pixel.Formats {
		assert.Contains(t, out.String(), f.String())
	}
}

func TestPrepareOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new")
	require.NoError(t, prepareOutputDir(dir, false))

	empty, err := isDirEmpty(dir)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), nil, 0644))
	assert.Error(t, prepareOutputDir(dir, false))
	assert.NoError(t, prepareOutputDir(dir, true))
}

func TestNewApp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"image_format": "webp", "log_level": "warn"}`), 0644))

	a, err := newApp(context.Background(), &CLI{Config: path, Workers: 3}, config.Flags{})
	require.NoError(t, err)
	assert.Equal(t, 3, a.cfg.Workers)
	assert.Equal(t, "webp", string(a.options().ImageFormat))
	assert.Equal(t, "warning", a.log.GetLevel().String())

	_, err = newApp(context.Background(), &CLI{LogLevel: "loud"}, config.Flags{})
	assert.Error(t, err)
}
