package tpg

import "encoding/binary"

// Entry is the decoded form of one index entry.
type Entry struct {
	IDHash     uint32
	Width      uint32
	Height     uint32
	Reserved   [ReservedSize]byte
	Format     uint32
	DataOffset uint32
}

// EncodeTo writes the entry to buf, which must be at least EntrySize bytes.
func (e *Entry) EncodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0x00:0x04], e.IDHash)
	binary.LittleEndian.PutUint32(buf[0x04:0x08], e.Width)
	binary.LittleEndian.PutUint32(buf[0x08:0x0C], e.Height)
	copy(buf[0x0C:0x1C], e.Reserved[:])
	binary.LittleEndian.PutUint32(buf[0x1C:0x20], e.Format)
	binary.LittleEndian.PutUint32(buf[0x20:0x24], e.DataOffset)
}

// DecodeFrom reads the entry from buf, which must be at least EntrySize bytes.
// Does not validate.
func (e *Entry) DecodeFrom(buf []byte) {
	e.IDHash = binary.LittleEndian.Uint32(buf[0x00:0x04])
	e.Width = binary.LittleEndian.Uint32(buf[0x04:0x08])
	e.Height = binary.LittleEndian.Uint32(buf[0x08:0x0C])
	copy(e.Reserved[:], buf[0x0C:0x1C])
	e.Format = binary.LittleEndian.Uint32(buf[0x1C:0x20])
	e.DataOffset = binary.LittleEndian.Uint32(buf[0x20:0x24])
}
