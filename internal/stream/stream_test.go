package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	w, err := NewWriter(&out, c)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return out.Bytes()
}

func TestRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("BLENDER-v300 chunk payload "), 64)
	for _, c := range []Compression{None, Gzip, Zstd} {
		t.Run(c.String(), func(t *testing.T) {
			packed := compress(t, c, plain)
			require.Equal(t, c, Detect(packed))

			got, detected, err := Decompress(packed, 0)
			require.NoError(t, err)
			require.Equal(t, c, detected)
			require.Equal(t, plain, got)
		})
	}
}

func TestDecompressLimit(t *testing.T) {
	plain := make([]byte, 4096)
	for _, c := range []Compression{Gzip, Zstd} {
		packed := compress(t, c, plain)
		_, _, err := Decompress(packed, 1024)
		require.Error(t, err, c.String())

		got, _, err := Decompress(packed, len(plain))
		require.NoError(t, err, c.String())
		require.Len(t, got, len(plain))
	}
}

func TestDecompressCorrupt(t *testing.T) {
	_, c, err := Decompress([]byte{0x1f, 0x8b, 0, 0}, 0)
	require.Error(t, err)
	require.Equal(t, Gzip, c)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": None, "none": None, "GZIP": Gzip, "zst": Zstd} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}
	_, err := ParseCompression("lz4")
	require.Error(t, err)
}
