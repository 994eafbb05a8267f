package storezip

import "errors"

var (
	// ErrInvalidPath is returned in strict mode when an entry path is empty
	// after normalization or tries to climb above the archive root.
	ErrInvalidPath = errors.New("storezip: invalid entry path")

	// ErrDuplicatePath is returned in strict mode when two entries
	// normalize to the same name.
	ErrDuplicatePath = errors.New("storezip: duplicate entry path")

	// ErrTooManyEntries is returned when the archive would contain more
	// entries than allowed.
	ErrTooManyEntries = errors.New("storezip: too many entries")

	// ErrSizeOverflow is returned when a name, an entry or the archive is
	// too large for the fixed-width fields of the format.
	ErrSizeOverflow = errors.New("storezip: size overflow")
)
