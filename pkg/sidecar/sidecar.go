// Package sidecar reads and writes the JSON metadata files stored next to
// each extracted texture image.
//
// A sidecar carries every index field that is not visible in the image, so
// that packing a directory reproduces the original record exactly:
//
//	{
//	  "id_hash": 439041101,
//	  "format": "R8G8B8A8",
//	  "width": 2,
//	  "height": 2,
//	  "unk_c": 0,
//	  "unk_10": 0,
//	  "unk_14": 0,
//	  "unk_18": 0,
//	  "texel_digest": "…"
//	}
//
// The unk_* keys hold the reserved index words as signed integers, named
// after their entry offsets. Sidecars written by older tools used "id" and
// "texture_format" and had no dimensions; both forms are accepted, and the
// old key is dropped when the new one is present. Keys this package does not
// know are kept and written back unchanged.
package sidecar

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/zeebo/blake3"

	"github.com/EchoTools/tpgtools/pkg/pixel"
	"github.com/EchoTools/tpgtools/pkg/tpg"
)

// Ext is the file extension of sidecar files.
const Ext = ".json"

var reservedKeys = [4]string{"unk_c", "unk_10", "unk_14", "unk_18"}

// Sidecar is the metadata of one texture.
type Sidecar struct {
	IDHash   uint32
	Format   pixel.Format
	Width    uint32 // 0 when the sidecar does not specify it
	Height   uint32
	Reserved [4]int32

	// TexelDigest is the BLAKE3 digest of the texel data at extraction time.
	TexelDigest string

	// Extra holds keys that are not interpreted.
	Extra map[string]json.RawMessage
}

// FromRecord builds the sidecar of a record.
func FromRecord(r tpg.Record) Sidecar {
	return Sidecar{
		IDHash:      r.IDHash,
		Format:      r.Format,
		Width:       r.Width,
		Height:      r.Height,
		Reserved:    r.ReservedWords(),
		TexelDigest: Digest(r.Texels),
	}
}

// Record builds a record from the sidecar and texel data encoded in format.
func (s Sidecar) Record(format pixel.Format, width, height uint32, texels []byte) tpg.Record {
	r := tpg.Record{
		IDHash: s.IDHash,
		Format: format,
		Width:  width,
		Height: height,
		Texels: texels,
	}
	r.SetReservedWords(s.Reserved)
	return r
}

// Digest returns the hex BLAKE3 digest of texel data.
func Digest(texels []byte) string {
	sum := blake3.Sum256(texels)
	return hex.EncodeToString(sum[:])
}

// MarshalJSON implements json.Marshaler.
func (s Sidecar) MarshalJSON() ([]byte, error) {
	if !s.Format.Valid() {
		return nil, pixel.ErrUnsupportedFormat.New(uint32(s.Format))
	}

	fields := make(map[string]interface{}, len(s.Extra)+9)
	for k, v := range s.Extra {
		fields[k] = v
	}
	fields["id_hash"] = s.IDHash
	fields["format"] = s.Format.String()
	fields["width"] = s.Width
	fields["height"] = s.Height
	for i, k := range reservedKeys {
		fields[k] = s.Reserved[i]
	}
	if s.TexelDigest != "" {
		fields["texel_digest"] = s.TexelDigest
	}

	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sidecar) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	out := Sidecar{}

	idKey := pick(fields, "id_hash", "id")
	if idKey == "" {
		return fmt.Errorf("missing id_hash")
	}
	if err := take(fields, idKey, &out.IDHash); err != nil {
		return err
	}
	delete(fields, "id")

	formatKey := pick(fields, "format", "texture_format")
	if formatKey == "" {
		return fmt.Errorf("missing format")
	}
	if err := take(fields, formatKey, &out.Format); err != nil {
		return err
	}
	delete(fields, "texture_format")

	for _, k := range []string{"width", "height"} {
		if _, ok := fields[k]; !ok {
			continue
		}
		dst := &out.Width
		if k == "height" {
			dst = &out.Height
		}
		if err := take(fields, k, dst); err != nil {
			return err
		}
	}

	for i, k := range reservedKeys {
		if _, ok := fields[k]; !ok {
			continue
		}
		if err := take(fields, k, &out.Reserved[i]); err != nil {
			return err
		}
	}

	if _, ok := fields["texel_digest"]; ok {
		if err := take(fields, "texel_digest", &out.TexelDigest); err != nil {
			return err
		}
	}

	if len(fields) > 0 {
		out.Extra = fields
	}
	*s = out
	return nil
}

func pick(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			return k
		}
	}
	return ""
}

// take decodes fields[key] into dst and removes it from fields.
func take(fields map[string]json.RawMessage, key string, dst interface{}) error {
	if err := json.Unmarshal(fields[key], dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	delete(fields, key)
	return nil
}

// ReadFile reads a sidecar file.
func ReadFile(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sidecar{}, fmt.Errorf("sidecar: read %s: %w", path, err)
	}

	var s Sidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return Sidecar{}, fmt.Errorf("sidecar: parse %s: %w", path, err)
	}
	return s, nil
}

// WriteFile writes a sidecar file.
func WriteFile(path string, s Sidecar) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("sidecar: encode %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
