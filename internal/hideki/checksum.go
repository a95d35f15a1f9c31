// Package hideki decodes and encodes the Manchester coded telemetry of
// Hideki/Cresta weather sensors (TFA, Honeywell, Irox and others).
//
// A frame is a 0x75 header byte followed by scrambled payload bytes and two
// check bytes. Each byte goes on air as a start bit and 8 data bits, LSB
// first.
package hideki

import "errors"

// Header is the first byte of every frame.
const Header = 0x75

// Package length limits; the length is carried in bits 1..5 of byte 2.
const (
	MinPackageLength = 6
	MaxPackageLength = 11
	maxFrame         = MaxPackageLength + 3
)

// ErrPackageLength is returned for buffers whose length byte is out of range
// or that are shorter than the length byte claims.
var ErrPackageLength = errors.New("hideki: invalid package length")

// PackageLength returns the length encoded in an unscrambled length byte.
func PackageLength(b byte) int {
	return int(b>>1) & 0x1f
}

// descramble undoes scrambleByte.
func descramble(b byte) byte {
	return b ^ b<<1
}

// scrambleByte XOR-folds b over its left-shift chain.
func scrambleByte(b byte) byte {
	var a byte
	for ; b != 0; b <<= 1 {
		a ^= b
	}
	return a
}

// secondCheck is one step of the rolling check; the input is the previous
// value XOR the next byte.
func secondCheck(b byte) byte {
	if b&0x80 != 0 {
		b ^= 0x95
	}
	c := b ^ b>>1
	if b&1 != 0 {
		c ^= 0x5f
	}
	if c&1 != 0 {
		b ^= 0x5f
	}
	return b ^ c>>1
}

// DecryptAndCheck verifies the check bytes of a received frame and
// descrambles bytes 1..packageLength+1 in place. The frame is only valid if
// it returns true; on false its contents are partly descrambled.
func DecryptAndCheck(frame []byte, packageLength int) bool {
	if packageLength < 0 || len(frame) < packageLength+3 {
		return false
	}
	var cs1, cs2 byte
	for i := 1; i < packageLength+2; i++ {
		cs1 ^= frame[i]
		cs2 = secondCheck(frame[i] ^ cs2)
		frame[i] = descramble(frame[i])
	}
	return cs1 == 0 && cs2 == frame[packageLength+2]
}

// EncryptAndAddCheck returns the on-air form of an unscrambled package:
// bytes 1..n scrambled, followed by the two check bytes, where n is the
// package length from byte 2. data is not modified.
func EncryptAndAddCheck(data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, ErrPackageLength
	}
	count := PackageLength(data[2])
	if count < MinPackageLength || count > MaxPackageLength || len(data) < count+1 {
		return nil, ErrPackageLength
	}

	out := make([]byte, count+3)
	copy(out, data[:count+1])

	var cs1, cs2 byte
	for i := 1; i < count+1; i++ {
		out[i] = scrambleByte(out[i])
		cs1 ^= out[i]
		cs2 = secondCheck(out[i] ^ cs2)
	}
	out[count+1] = cs1
	out[count+2] = secondCheck(cs1 ^ cs2)
	return out, nil
}
