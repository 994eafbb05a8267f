package storezip

import (
	"fmt"
	"math"

	"github.com/meigma/storezip/internal/checksum"
	"github.com/meigma/storezip/internal/pathutil"
	"github.com/meigma/storezip/internal/sizing"
	"github.com/meigma/storezip/internal/zipfmt"
)

const (
	localHeaderLen   = zipfmt.LocalHeaderLen
	centralHeaderLen = zipfmt.CentralHeaderLen
	endRecordLen     = zipfmt.EndRecordLen
)

// Plan normalizes entry paths, checksums their content and computes the
// offset of every record without serializing anything.
//
// Build uses the same computation, so a Layout from Plan always matches
// the archive Build produces for the same input and options.
func Plan(entries []Entry, opts ...Option) (Layout, error) {
	cfg := newConfig(opts)
	return plan(&cfg, entries)
}

// plan folds over entries in input order, carrying the running offset of
// the next local record. Each entry captures the offset before its own
// record is added.
func plan(cfg *config, entries []Entry) (Layout, error) {
	l := Layout{Entries: make([]EntryLayout, 0, len(entries))}
	logger := cfg.log()
	var offset, cdSize uint64
	var ok bool
	var seen map[string]struct{}
	if cfg.strictPaths {
		seen = make(map[string]struct{}, len(entries))
	}

	for i, e := range entries {
		name, escaped := pathutil.Clean(e.Path)
		if cfg.strictPaths {
			if name == "" || escaped {
				return Layout{}, fmt.Errorf("%w: %q", ErrInvalidPath, e.Path)
			}
			if _, dup := seen[name]; dup {
				return Layout{}, fmt.Errorf("%w: %q", ErrDuplicatePath, name)
			}
			seen[name] = struct{}{}
		}
		if name == "" {
			logger.Debug("dropped entry", "path", e.Path, "index", i)
			l.Dropped++
			continue
		}

		if len(l.Entries) >= cfg.maxEntries {
			return Layout{}, ErrTooManyEntries
		}
		if len(name) > zipfmt.MaxNameLen {
			return Layout{}, fmt.Errorf("%w: name of %d bytes", ErrSizeOverflow, len(name))
		}
		size, err := sizing.ToUint32(uint64(len(e.Content)), ErrSizeOverflow) //nolint:gosec // len is non-negative
		if err != nil {
			return Layout{}, fmt.Errorf("%w: %s", err, name)
		}
		localOffset, err := sizing.ToUint32(offset, ErrSizeOverflow)
		if err != nil {
			return Layout{}, err
		}

		el := EntryLayout{
			Name:   name,
			Source: i,
			CRC32:  checksum.Checksum(e.Content),
			Size:   size,
			Offset: localOffset,
		}
		l.Entries = append(l.Entries, el)

		localLen := uint64(localHeaderLen+len(name)) + uint64(size) //nolint:gosec // name length checked above
		if offset, ok = sizing.AddUint64(offset, localLen); !ok {
			return Layout{}, ErrSizeOverflow
		}
		cdSize += uint64(centralHeaderLen + len(name)) //nolint:gosec // name length checked above
	}

	var err error
	if l.CentralDirectoryOffset, err = sizing.ToUint32(offset, ErrSizeOverflow); err != nil {
		return Layout{}, err
	}
	if l.CentralDirectorySize, err = sizing.ToUint32(cdSize, ErrSizeOverflow); err != nil {
		return Layout{}, err
	}
	total := offset + cdSize + endRecordLen
	if total > uint64(math.MaxInt) {
		return Layout{}, ErrSizeOverflow
	}
	l.Size = int(total)
	return l, nil
}
