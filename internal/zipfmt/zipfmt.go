// Package zipfmt encodes the fixed-layout records of a store-only ZIP
// archive.
//
// All multi-byte fields are little-endian. Only method 0 (store) is
// produced: compressed and uncompressed sizes are always equal, no data
// descriptor follows the content and no extra fields or comments are
// written.
package zipfmt

import (
	"encoding/binary"
	"math"
)

// Record signatures. Each begins with the two-byte marker "PK".
const (
	LocalHeaderSignature   uint32 = 0x04034b50 // PK\x03\x04
	CentralHeaderSignature uint32 = 0x02014b50 // PK\x01\x02
	EndRecordSignature     uint32 = 0x06054b50 // PK\x05\x06
)

// Fixed record lengths, excluding the variable-length name.
const (
	LocalHeaderLen   = 30
	CentralHeaderLen = 46
	EndRecordLen     = 22
)

const (
	// VersionNeeded is 2.0, the minimum for a plain stored file.
	VersionNeeded uint16 = 20
	// VersionMadeBy is 2.0 with host system 0 (MS-DOS / FAT attributes).
	VersionMadeBy uint16 = 20
	// MethodStore stores content verbatim.
	MethodStore uint16 = 0
)

// Format limits for archives without zip64 records.
const (
	MaxNameLen = math.MaxUint16
	MaxEntries = math.MaxUint16
	MaxSize    = math.MaxUint32
)

// LocalHeader is the header written immediately before an entry's content.
type LocalHeader struct {
	Name  string
	CRC32 uint32
	Size  uint32
}

// Len returns the encoded length of the header including the name.
func (h LocalHeader) Len() int {
	return LocalHeaderLen + len(h.Name)
}

// AppendTo appends the encoded header and name to dst.
func (h LocalHeader) AppendTo(dst []byte) []byte {
	le := binary.LittleEndian
	nameLen := uint16(len(h.Name)) //nolint:gosec // bounded by MaxNameLen
	dst = le.AppendUint32(dst, LocalHeaderSignature)
	dst = le.AppendUint16(dst, VersionNeeded)
	dst = le.AppendUint16(dst, 0) // flags
	dst = le.AppendUint16(dst, MethodStore)
	dst = le.AppendUint16(dst, 0) // mod time
	dst = le.AppendUint16(dst, 0) // mod date
	dst = le.AppendUint32(dst, h.CRC32)
	dst = le.AppendUint32(dst, h.Size) // compressed
	dst = le.AppendUint32(dst, h.Size) // uncompressed
	dst = le.AppendUint16(dst, nameLen)
	dst = le.AppendUint16(dst, 0) // extra length
	return append(dst, h.Name...)
}

// CentralHeader is an entry's record in the central directory.
type CentralHeader struct {
	Name   string
	CRC32  uint32
	Size   uint32
	Offset uint32 // start of the entry's LocalHeader
}

// Len returns the encoded length of the header including the name.
func (h CentralHeader) Len() int {
	return CentralHeaderLen + len(h.Name)
}

// AppendTo appends the encoded header and name to dst.
func (h CentralHeader) AppendTo(dst []byte) []byte {
	le := binary.LittleEndian
	nameLen := uint16(len(h.Name)) //nolint:gosec // bounded by MaxNameLen
	dst = le.AppendUint32(dst, CentralHeaderSignature)
	dst = le.AppendUint16(dst, VersionMadeBy)
	dst = le.AppendUint16(dst, VersionNeeded)
	dst = le.AppendUint16(dst, 0) // flags
	dst = le.AppendUint16(dst, MethodStore)
	dst = le.AppendUint16(dst, 0) // mod time
	dst = le.AppendUint16(dst, 0) // mod date
	dst = le.AppendUint32(dst, h.CRC32)
	dst = le.AppendUint32(dst, h.Size)
	dst = le.AppendUint32(dst, h.Size)
	dst = le.AppendUint16(dst, nameLen)
	dst = le.AppendUint16(dst, 0) // extra length
	dst = le.AppendUint16(dst, 0) // comment length
	dst = le.AppendUint16(dst, 0) // disk number start
	dst = le.AppendUint16(dst, 0) // internal attributes
	dst = le.AppendUint32(dst, 0) // external attributes
	dst = le.AppendUint32(dst, h.Offset)
	return append(dst, h.Name...)
}

// EndRecord is the end of central directory record. Multi-disk archives
// are not produced, so the entry count fills both count fields.
type EndRecord struct {
	Entries                uint16
	CentralDirectorySize   uint32
	CentralDirectoryOffset uint32
}

// AppendTo appends the encoded record to dst.
func (r EndRecord) AppendTo(dst []byte) []byte {
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, EndRecordSignature)
	dst = le.AppendUint16(dst, 0) // this disk
	dst = le.AppendUint16(dst, 0) // disk with central directory
	dst = le.AppendUint16(dst, r.Entries)
	dst = le.AppendUint16(dst, r.Entries)
	dst = le.AppendUint32(dst, r.CentralDirectorySize)
	dst = le.AppendUint32(dst, r.CentralDirectoryOffset)
	return le.AppendUint16(dst, 0) // comment length
}
