package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign8(t *testing.T) {
	assert.Equal(t, 0, Align8(0))
	assert.Equal(t, 8, Align8(1))
	assert.Equal(t, 8, Align8(8))
	assert.Equal(t, 16, Align8(9))
	assert.Equal(t, int32(16), Align8I32(16))
	assert.Equal(t, int32(24), Align8I32(17))
}

func TestAlignPage(t *testing.T) {
	assert.Equal(t, 4096, AlignPage(1))
	assert.Equal(t, 4096, AlignPage(4096))
	assert.Equal(t, 8192, AlignPage(4097))
}

func TestCellSize_IncludesHeader(t *testing.T) {
	assert.Equal(t, 8, CellSize(0))
	assert.Equal(t, 16, CellSize(1))
	assert.Equal(t, 16, CellSize(8))
	assert.Equal(t, 24, CellSize(9))
}

func TestCellHeader_Roundtrip(t *testing.T) {
	b := make([]byte, 32)

	WriteCellHeader(b, 8, 64, 7)
	size, id := ReadCellHeader(b, 8)
	require.Equal(t, int32(-64), size, "allocated cells carry negative size")
	require.Equal(t, uint32(7), id)

	WriteFreeHeader(b, 8, 64)
	size, id = ReadCellHeader(b, 8)
	require.Equal(t, int32(64), size, "free cells carry positive size")
	require.Zero(t, id)
}
