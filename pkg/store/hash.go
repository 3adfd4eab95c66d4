package store

import "encoding/binary"

// KeyFamily identifies which hash function a key is routed through.
type KeyFamily int

const (
	// TextKey is any key that is not exactly IntKeySize bytes long.
	TextKey KeyFamily = iota
	// IntKey is a fixed-width little-endian integer key.
	IntKey
)

func (f KeyFamily) String() string {
	if f == IntKey {
		return "int"
	}
	return "text"
}

// FamilyOf classifies a key by its length alone. A four byte text key
// such as "abcd" is classified as IntKey; that is a known ambiguity of
// the length hint and it is applied consistently on every operation.
func FamilyOf(key []byte) KeyFamily {
	if len(key) == IntKeySize {
		return IntKey
	}
	return TextKey
}

// hashInt maps a fixed-width key to its unsigned value modulo size.
func hashInt(key []byte, size int) int {
	return int(binary.LittleEndian.Uint32(key) % uint32(size))
}

// hashText is a polynomial rolling hash with multiplier 31.
// Arithmetic wraps at 32 bits so the result is never negative.
func hashText(key []byte, size int) int {
	var h uint32
	for _, b := range key {
		h = h*31 + uint32(b)
	}
	return int(h % uint32(size))
}

// Hash returns the bucket index for key in a table of the given size.
// It is a pure function of the key bytes and size.
func Hash(key []byte, size int) int {
	if FamilyOf(key) == IntKey {
		return hashInt(key, size)
	}
	return hashText(key, size)
}
