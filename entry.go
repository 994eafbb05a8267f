package storezip

// Entry is a file to place in the archive. The caller owns Content;
// Build never modifies it.
type Entry struct {
	// Path is the entry's path inside the archive. It is normalized
	// before use (see the package documentation).
	Path string

	// Content is stored verbatim.
	Content []byte
}

// EntryLayout describes where a surviving entry lands in the archive.
type EntryLayout struct {
	// Name is the normalized path written to the archive.
	Name string

	// Source is the index of the entry in the input slice.
	Source int

	// CRC32 is the IEEE CRC-32 of the content.
	CRC32 uint32

	// Size is the content length, both compressed and uncompressed.
	Size uint32

	// Offset is the byte offset of the entry's local header.
	Offset uint32
}

// LocalLen returns the length of the entry's local header, name and content.
func (e EntryLayout) LocalLen() int {
	return localHeaderLen + len(e.Name) + int(e.Size)
}

// CentralLen returns the length of the entry's central directory record.
func (e EntryLayout) CentralLen() int {
	return centralHeaderLen + len(e.Name)
}

// Layout is the computed structure of an archive before serialization.
type Layout struct {
	// Entries lists surviving entries in input order.
	Entries []EntryLayout

	// Dropped is the number of input entries whose path normalized to
	// nothing.
	Dropped int

	// CentralDirectoryOffset equals the total length of all local records.
	CentralDirectoryOffset uint32

	// CentralDirectorySize is the total length of all central records.
	CentralDirectorySize uint32

	// Size is the total archive length, including the end record.
	Size int
}
