package storezip

import (
	_ "crypto/sha256" // register sha256 for go-digest

	"github.com/opencontainers/go-digest"
)

// Digest returns the sha256 digest of a built archive. Build is
// deterministic, so equal inputs yield equal digests.
func Digest(archive []byte) digest.Digest {
	return digest.FromBytes(archive)
}
