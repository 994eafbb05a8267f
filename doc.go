// Package storezip assembles in-memory files into a ZIP archive that any
// standard unzip tool can open.
//
// Only the "store" method is written: content is copied verbatim and
// sizes and CRC-32 checksums are placed inline in each local header, so
// no data descriptors, extra fields or comments appear in the output.
// The archive is built in a single pass into one contiguous buffer, which
// suits download bundles in the kilobyte to low-megabyte range.
//
// # Quick Start
//
//	archive, err := storezip.Build([]storezip.Entry{
//	    {Path: "README.md", Content: readme},
//	    {Path: "config/settings.env", Content: []byte(env)},
//	})
//	if err != nil {
//	    return err
//	}
//
// # Paths
//
// Every entry path is normalized before it is written: backslashes become
// slashes, empty and "." segments are removed and ".." removes the segment
// before it. The resulting names never start with a slash and never
// contain "..", so extracting the archive cannot write outside the target
// directory. By default an entry whose path normalizes to nothing is
// dropped silently; [WithStrictPaths] turns that into an error.
//
// # Limits
//
// Archives are written without zip64 records. Names longer than 65535
// bytes, content of 4 GiB or more, more than 65535 entries, or an
// archive whose offsets exceed 32 bits are rejected with
// [ErrSizeOverflow] or [ErrTooManyEntries].
package storezip
