package blend

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/blendkit/internal/chunk"
	"github.com/joshuapare/blendkit/internal/stream"
	"github.com/joshuapare/blendkit/pkg/types"
)

// Options controls parsing and reflection. The zero value is usable.
type Options struct {
	// Magic is the 7-byte file identifier. Default: "BLENDER".
	Magic string

	// PointerSize is the pointer width of the memory layout, 4 or 8.
	// Default: the host word size.
	PointerSize int

	// Limits bounds schema tables and allocations.
	// If nil, types.DefaultLimits() is used.
	Limits *types.Limits

	// Logger receives degraded-parse events. Default: discard.
	Logger logrus.FieldLogger

	// Compression wraps files written by Reflect. Default: none.
	Compression Compression

	// Version is the three-digit version written by Reflect.
	// Default: the parsed file's version, else 300.
	Version int
}

// DefaultVersion is written by Reflect when no version is known.
const DefaultVersion = 300

// Limits is re-exported for convenience.
type Limits = types.Limits

// Compression selects the envelope Reflect wraps output in.
type Compression = stream.Compression

const (
	CompressNone = stream.None
	CompressGzip = stream.Gzip
	CompressZstd = stream.Zstd
)

// ParseCompression maps "none", "gzip" or "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) { return stream.ParseCompression(s) }

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Magic == "" {
		out.Magic = chunk.DefaultMagic
	}
	if out.PointerSize == 0 {
		out.PointerSize = strconv.IntSize / 8
	}
	return out
}

func (o *Options) limits() types.Limits { return o.Limits.OrDefault() }
