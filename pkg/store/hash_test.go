package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, IntKey, FamilyOf(intKey(12)))
	assert.Equal(t, TextKey, FamilyOf([]byte("abc")))
	assert.Equal(t, TextKey, FamilyOf([]byte("hello")))
	assert.Equal(t, TextKey, FamilyOf(nil))

	// four byte text keys take the integer path
	assert.Equal(t, IntKey, FamilyOf([]byte("abcd")))
}

func TestHash_Int(t *testing.T) {
	assert.Equal(t, 2, Hash(intKey(42), 10))
	assert.Equal(t, 0, Hash(intKey(0), 7))
	// values above MaxInt32 are treated as unsigned
	assert.Equal(t, int(uint32(0xFFFFFFFF)%13), Hash(intKey(0xFFFFFFFF), 13))
}

func TestHash_Text(t *testing.T) {
	// "ab" = 97*31 + 98 = 3105
	assert.Equal(t, 3105%16, Hash([]byte("ab"), 16))
	assert.Equal(t, 97%4, Hash([]byte("a"), 4))
	assert.Equal(t, 0, Hash(nil, 4))
}

func TestHash_InRange(t *testing.T) {
	keys := [][]byte{
		[]byte("a"),
		[]byte("a very long key that wraps the 32 bit accumulator many times over"),
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		intKey(0x80000000),
	}
	for _, size := range []int{1, 2, 3, 17, 1024} {
		for _, k := range keys {
			h := Hash(k, size)
			assert.GreaterOrEqual(t, h, 0)
			assert.Less(t, h, size)
		}
	}
}

func TestHash_Deterministic(t *testing.T) {
	key := []byte("user:123")
	first := Hash(key, 31)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Hash([]byte("user:123"), 31))
	}
}
