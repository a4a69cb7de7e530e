package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMix32(t *testing.T) {
	assert.Equal(t, uint32(0), Mix32(0))
	assert.Equal(t, uint32(1), Mix32(1))
	// 1<<7 shifts down onto bit 0.
	assert.Equal(t, uint32(1<<7|1), Mix32(1<<7))
}

func TestMix64FoldsHighWord(t *testing.T) {
	assert.Equal(t, Mix32(1), Mix64(1<<32))
	assert.Equal(t, Mix32(0), Mix64(1<<32|1))
}

func TestBytesMatchesString(t *testing.T) {
	assert.Equal(t, String("monet"), Bytes([]byte("monet")))
	assert.NotEqual(t, String("a"), String("b"))
}

func TestCRC32C(t *testing.T) {
	data := []byte("checkpoint")
	h := NewCRC32C()
	_, _ = h.Write(data[:5])
	_, _ = h.Write(data[5:])
	assert.Equal(t, CRC32C(data), h.Sum32())
}
