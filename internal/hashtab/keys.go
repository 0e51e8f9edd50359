package hashtab

// FNV-1a constants for 32-bit hash.
const (
	fnvBasis32 uint32 = 2166136261
	fnvPrime32 uint32 = 16777619
)

// Hash32 computes the FNV-1a hash of s. Schema type and field names are
// keyed by this value.
func Hash32(s string) uint32 {
	h := fnvBasis32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

// U32 is a key that already carries a 32-bit name hash.
type U32 uint32

func (k U32) Hash() uint64 { return mix(uint64(k)) }

// Addr is an opaque 64-bit address label. It is only compared, never dereferenced.
type Addr uint64

func (k Addr) Hash() uint64 { return mix(uint64(k)) }

// mix is the splitmix64 finalizer. Chunk addresses share their low bits
// (allocator alignment), so they are scrambled before masking.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
