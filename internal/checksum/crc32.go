// Package checksum implements the CRC-32 used by ZIP local and central
// directory headers.
package checksum

// IEEE is the reflected form of the CRC-32 polynomial used by ZIP
// (IEEE 802.3 / PKZIP).
const IEEE = 0xedb88320

// ieeeTable is built once at init and never written afterwards, so it is
// safe to share across goroutines.
var ieeeTable = makeTable(IEEE)

func makeTable(poly uint32) *[256]uint32 {
	t := new([256]uint32)
	for i := range t {
		crc := uint32(i) //nolint:gosec // i < 256
		for range 8 {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Update returns the result of adding the bytes in p to crc.
// crc is a finalized checksum, so Update(0, p) == Checksum(p) and
// Update(Checksum(a), b) == Checksum(a ++ b).
func Update(crc uint32, p []byte) uint32 {
	crc = ^crc
	for _, b := range p {
		crc = ieeeTable[byte(crc)^b] ^ (crc >> 8)
	}
	return ^crc
}

// Checksum returns the CRC-32 of p. The checksum of empty input is 0.
func Checksum(p []byte) uint32 {
	return Update(0, p)
}
