// Package testutil provides helpers for inspecting archives in tests.
package testutil

import (
	stdzip "archive/zip"
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	kpzip "github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// File is an entry read back from an archive.
type File struct {
	Name    string
	Content []byte
	Method  uint16
	CRC32   uint32
}

// ReadZip opens data with the standard library reader and returns its
// files in central directory order.
func ReadZip(tb testing.TB, data []byte) []File {
	tb.Helper()

	zr, err := stdzip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(tb, err)

	files := make([]File, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(tb, err, "open %s", f.Name)
		content, err := io.ReadAll(rc)
		require.NoError(tb, err, "read %s", f.Name)
		require.NoError(tb, rc.Close())
		files = append(files, File{Name: f.Name, Content: content, Method: f.Method, CRC32: f.CRC32})
	}
	return files
}

// ReadZipKlauspost opens data with klauspost/compress/zip and returns its
// files in central directory order. It is a second, independent reader
// for round-trip checks.
func ReadZipKlauspost(tb testing.TB, data []byte) []File {
	tb.Helper()

	zr, err := kpzip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(tb, err)

	files := make([]File, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(tb, err, "open %s", f.Name)
		content, err := io.ReadAll(rc)
		require.NoError(tb, err, "read %s", f.Name)
		require.NoError(tb, rc.Close())
		files = append(files, File{Name: f.Name, Content: content, Method: f.Method, CRC32: f.CRC32})
	}
	return files
}

// EndRecord is the decoded end of central directory record.
type EndRecord struct {
	DiskEntries            uint16
	TotalEntries           uint16
	CentralDirectorySize   uint32
	CentralDirectoryOffset uint32
	CommentLen             uint16
}

// ParseEndRecord decodes the 22-byte record at the end of data.
func ParseEndRecord(tb testing.TB, data []byte) EndRecord {
	tb.Helper()

	require.GreaterOrEqual(tb, len(data), 22)
	rec := data[len(data)-22:]
	le := binary.LittleEndian
	require.Equal(tb, uint32(0x06054b50), le.Uint32(rec[0:4]), "end record signature")
	require.Zero(tb, le.Uint16(rec[4:6]), "disk number")
	require.Zero(tb, le.Uint16(rec[6:8]), "central directory disk")
	return EndRecord{
		DiskEntries:            le.Uint16(rec[8:10]),
		TotalEntries:           le.Uint16(rec[10:12]),
		CentralDirectorySize:   le.Uint32(rec[12:16]),
		CentralDirectoryOffset: le.Uint32(rec[16:20]),
		CommentLen:             le.Uint16(rec[20:22]),
	}
}

// CentralOffsets walks the central directory and returns the local
// header offset stored in each record.
func CentralOffsets(tb testing.TB, data []byte) []uint32 {
	tb.Helper()

	end := ParseEndRecord(tb, data)
	le := binary.LittleEndian
	pos := int(end.CentralDirectoryOffset)
	stop := pos + int(end.CentralDirectorySize)
	var offsets []uint32
	for pos < stop {
		require.Equal(tb, uint32(0x02014b50), le.Uint32(data[pos:pos+4]), "central header signature at %d", pos)
		nameLen := int(le.Uint16(data[pos+28 : pos+30]))
		extraLen := int(le.Uint16(data[pos+30 : pos+32]))
		commentLen := int(le.Uint16(data[pos+32 : pos+34]))
		offsets = append(offsets, le.Uint32(data[pos+42:pos+46]))
		pos += 46 + nameLen + extraLen + commentLen
	}
	require.Equal(tb, stop, pos, "central directory size")
	return offsets
}

// LocalLengths walks the local records from the start of data and returns
// the length of each, stopping at the central directory.
func LocalLengths(tb testing.TB, data []byte) []int {
	tb.Helper()

	le := binary.LittleEndian
	var lengths []int
	pos := 0
	for pos+4 <= len(data) && le.Uint32(data[pos:pos+4]) == 0x04034b50 {
		nameLen := int(le.Uint16(data[pos+26 : pos+28]))
		extraLen := int(le.Uint16(data[pos+28 : pos+30]))
		size := int(le.Uint32(data[pos+18 : pos+22]))
		n := 30 + nameLen + extraLen + size
		lengths = append(lengths, n)
		pos += n
	}
	return lengths
}
