package buf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNativeEndianMatchesOrder(t *testing.T) {
	var probe [2]byte
	NativeOrder().PutUint16(probe[:], 0x0102)
	if NativeEndian() == LittleEndian {
		require.Equal(t, [2]byte{0x02, 0x01}, probe)
	} else {
		require.Equal(t, [2]byte{0x01, 0x02}, probe)
	}
	require.True(t, IsEndian(NativeEndian()))
}

func TestSwapWords(t *testing.T) {
	require.Equal(t, uint16(0x3412), Swap16(0x1234))
	require.Equal(t, uint32(0x78563412), Swap32(0x12345678))
	require.Equal(t, uint64(0xefcdab8967452301), Swap64(0x0123456789abcdef))
}

func TestSwapBuffers(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	SwapBuffer16(b, 4)
	require.Equal(t, []byte{2, 1, 4, 3, 6, 5, 8, 7}, b)

	b = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	SwapBuffer32(b, 2)
	require.Equal(t, []byte{4, 3, 2, 1, 8, 7, 6, 5}, b)

	b = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	SwapBuffer64(b, 1)
	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, b)

	// count larger than the buffer only swaps the words that fit
	b = []byte{1, 2, 3}
	SwapBuffer16(b, 5)
	require.Equal(t, []byte{2, 1, 3}, b)
}

func TestSwapElem(t *testing.T) {
	one := []byte{9}
	SwapElem(one)
	require.Equal(t, []byte{9}, one)

	four := []byte{1, 2, 3, 4}
	SwapElem(four)
	require.Equal(t, []byte{4, 3, 2, 1}, four)
}

func TestUintRoundTrip(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8} {
		for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
			b := make([]byte, 8)
			require.True(t, PutUint(b, width, order, 0x7f))
			require.Equal(t, uint64(0x7f), Uint(b, width, order), "width=%d order=%v", width, order)
		}
	}
	require.False(t, PutUint(make([]byte, 2), 4, binary.LittleEndian, 1))
	require.False(t, PutUint(make([]byte, 8), 3, binary.LittleEndian, 1))
	require.Zero(t, Uint([]byte{1}, 4, binary.LittleEndian))
}

func TestOrderAppends(t *testing.T) {
	require.Equal(t, []byte{0x02, 0x01}, LittleEndian.Order().AppendUint16(nil, 0x0102))
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, BigEndian.Order().AppendUint32(nil, 0x01020304))
	b := NativeOrder().AppendUint64(nil, 0x0102030405060708)
	require.Equal(t, uint64(0x0102030405060708), NativeOrder().Uint64(b))
}
