package storezip

import (
	"slices"

	"github.com/meigma/storezip/internal/zipfmt"
)

// Build assembles entries into a store-only ZIP archive.
//
// Entries are written in input order: all local records, then the
// central directory in the same order, then the end record. Entries whose
// path normalizes to nothing are dropped unless WithStrictPaths is set.
// An empty input produces the 22-byte end record of an empty archive.
//
// Build holds no state between calls and is safe for concurrent use.
// Identical input always produces identical output.
func Build(entries []Entry, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	l, err := plan(&cfg, entries)
	if err != nil {
		return nil, err
	}
	out := assemble(entries, l)

	cfg.log().Debug("archive built",
		"entry_count", len(l.Entries),
		"dropped_count", l.Dropped,
		"central_directory_size", l.CentralDirectorySize,
		"size", len(out))
	return out, nil
}

// BuildStrings builds an archive from text files keyed by path.
// Paths are sorted so the output does not depend on map iteration order.
func BuildStrings(files map[string]string, opts ...Option) ([]byte, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	entries := make([]Entry, len(paths))
	for i, p := range paths {
		entries[i] = Entry{Path: p, Content: []byte(files[p])}
	}
	return Build(entries, opts...)
}

// assemble serializes a planned layout into a buffer of exactly l.Size bytes.
func assemble(entries []Entry, l Layout) []byte {
	out := make([]byte, 0, l.Size)
	for _, e := range l.Entries {
		out = zipfmt.LocalHeader{Name: e.Name, CRC32: e.CRC32, Size: e.Size}.AppendTo(out)
		out = append(out, entries[e.Source].Content...)
	}
	for _, e := range l.Entries {
		out = zipfmt.CentralHeader{Name: e.Name, CRC32: e.CRC32, Size: e.Size, Offset: e.Offset}.AppendTo(out)
	}
	return zipfmt.EndRecord{
		Entries:                uint16(len(l.Entries)), //nolint:gosec // bounded by maxEntries
		CentralDirectorySize:   l.CentralDirectorySize,
		CentralDirectoryOffset: l.CentralDirectoryOffset,
	}.AppendTo(out)
}
