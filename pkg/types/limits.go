package types

const (
	// DefaultMaxTableEntries caps each of the schema name, type and struct
	// tables. Current schemas declare a few thousand names.
	DefaultMaxTableEntries = 1 << 16

	// DefaultMaxStructMembers is the flattened member count above which a
	// struct is reported. It is a diagnostic, not a hard limit.
	DefaultMaxStructMembers = 4096

	// DefaultMaxEmbedDepth bounds recursion into embedded structs.
	DefaultMaxEmbedDepth = 64

	// DefaultMaxChunkLength is the largest chunk payload accepted (1 GiB).
	DefaultMaxChunkLength = 1 << 30

	// DefaultMaxAllocation is the largest single migrated buffer (2 GiB).
	DefaultMaxAllocation = 2 << 30
)

// Limits bounds what the parser is willing to compile and allocate.
type Limits struct {
	MaxTableEntries  int
	MaxStructMembers int
	MaxEmbedDepth    int
	MaxChunkLength   int
	MaxAllocation    int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxTableEntries:  DefaultMaxTableEntries,
		MaxStructMembers: DefaultMaxStructMembers,
		MaxEmbedDepth:    DefaultMaxEmbedDepth,
		MaxChunkLength:   DefaultMaxChunkLength,
		MaxAllocation:    DefaultMaxAllocation,
	}
}

// OrDefault returns l with zero fields replaced by their defaults.
func (l *Limits) OrDefault() Limits {
	d := DefaultLimits()
	if l == nil {
		return d
	}
	out := *l
	if out.MaxTableEntries <= 0 {
		out.MaxTableEntries = d.MaxTableEntries
	}
	if out.MaxStructMembers <= 0 {
		out.MaxStructMembers = d.MaxStructMembers
	}
	if out.MaxEmbedDepth <= 0 {
		out.MaxEmbedDepth = d.MaxEmbedDepth
	}
	if out.MaxChunkLength <= 0 {
		out.MaxChunkLength = d.MaxChunkLength
	}
	if out.MaxAllocation <= 0 {
		out.MaxAllocation = d.MaxAllocation
	}
	return out
}
