// Package migrate re-lays out the chunks of a file from the schema they were
// written with into the schema the application expects.
//
// A run has three passes:
//
//  1. allocate: every chunk whose struct is linked gets a zeroed buffer of
//     count × memory struct length and a fresh address; blocks of list-node
//     structs are copied verbatim; unlinked or skipped chunks are dropped.
//  2. copy: every linked field of every record is copied, byte swapped,
//     numerically cast or pointer relocated into the new buffer.
//  3. release: list-node blocks of a file in a foreign byte order or
//     pointer width are rewritten to native addresses, then the original
//     payloads are dropped.
//
// Addresses are opaque labels. Old addresses come from the file; new ones
// are handed out from a private, monotonically growing address space so a
// migrated pointer can be resolved back to its block with Result.Resolve.
package migrate

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/chunk"
	"github.com/joshuapare/blendkit/internal/diag"
	"github.com/joshuapare/blendkit/internal/hashtab"
	"github.com/joshuapare/blendkit/internal/sdna"
	"github.com/joshuapare/blendkit/pkg/types"
)

var (
	// ErrBadAlloc indicates a buffer above the configured allocation limit.
	ErrBadAlloc = errors.New("migrate: allocation exceeds limit")
	// ErrDuplicateAddress indicates two chunks declared the same old address.
	ErrDuplicateAddress = errors.New("migrate: duplicate chunk address")
	// ErrUnlinked indicates Run was given tables that were never linked.
	ErrUnlinked = errors.New("migrate: schema tables not linked")
)

// Block is one migrated chunk.
type Block struct {
	Code       chunk.Code
	OldAddress uint64
	Address    uint64

	// TypeID is the memory struct id, Count the number of records.
	TypeID int
	Count  int
	Data   []byte

	// Raw blocks are copied byte for byte from native-layout files. A raw
	// block used as a pointer table is rewritten to native addresses the
	// first time it is dereferenced and marked Modified. Raw blocks of
	// foreign-layout files are rewritten the same way after pass 2.
	Raw      bool
	Modified bool

	span int
}

// Input is everything one run consumes.
type Input struct {
	File   *sdna.Table
	Memory *sdna.Table
	Header chunk.FileHeader
	// Chunks are the data chunks in file order; schema and end chunks
	// must already be removed. Run releases every payload.
	Chunks []*chunk.Chunk
}

// Options configures a run.
type Options struct {
	// Notify is called once per block after its fields are migrated.
	// A non-nil error aborts the run.
	Notify func(b *Block, h chunk.Header) error
	Limits types.Limits
	Diag   *diag.Recorder
}

// Stats summarizes a run.
type Stats struct {
	Chunks        int
	Migrated      int
	Raw           int
	Dropped       int
	Clipped       int
	Unresolved    int
	PointerTables int
	// Normalized counts raw blocks of a foreign-layout file rewritten to
	// native addresses without being dereferenced.
	Normalized int
}

// Result holds the migrated blocks in address order.
type Result struct {
	Blocks []*Block
	Stats  Stats
}

// AddressBase is the first address handed out to a migrated block.
const AddressBase = 0x10000

const addressAlign = 16

type state struct {
	c     *chunk.Chunk
	fs    *sdna.Struct
	ms    *sdna.Struct
	block *Block
}

type engine struct {
	in     Input
	opts   Options
	limits types.Limits
	diag   *diag.Recorder

	fileOrder   binary.ByteOrder
	nativeOrder binary.ByteOrder
	swap        bool
	filePtr     int
	nativePtr   int

	states   []state
	byAddr   *hashtab.Table[hashtab.Addr, int]
	reported *hashtab.Table[hashtab.Addr, struct{}]
	next     uint64

	res *Result
}

// Run migrates in.Chunks. The tables must have been linked with link.Link.
func Run(in Input, opts Options) (*Result, error) {
	if in.File == nil || in.Memory == nil {
		return nil, errors.Wrap(ErrUnlinked, "nil schema table")
	}
	e := &engine{
		in:          in,
		opts:        opts,
		limits:      (&opts.Limits).OrDefault(),
		diag:        opts.Diag,
		fileOrder:   in.Header.Endian.Order(),
		nativeOrder: buf.NativeOrder(),
		swap:        !buf.IsEndian(in.Header.Endian),
		filePtr:     in.Header.PointerSize,
		nativePtr:   in.Memory.PointerSize,
		byAddr:      hashtab.New[hashtab.Addr, int](len(in.Chunks)),
		reported:    hashtab.New[hashtab.Addr, struct{}](0),
		next:        AddressBase,
		res:         &Result{},
	}
	if e.filePtr != 4 && e.filePtr != 8 {
		e.filePtr = in.File.PointerSize
	}
	e.res.Stats.Chunks = len(in.Chunks)

	if err := e.index(); err != nil {
		return nil, err
	}
	if err := e.allocate(); err != nil {
		return nil, err
	}
	if err := e.copy(); err != nil {
		return nil, err
	}
	e.normalize()
	e.release()
	return e.res, nil
}

// index maps every old address to its chunk.
func (e *engine) index() error {
	e.states = make([]state, len(e.in.Chunks))
	for i, c := range e.in.Chunks {
		e.states[i].c = c
		if c.OldAddress == 0 {
			continue
		}
		if !e.byAddr.Insert(hashtab.Addr(c.OldAddress), i) {
			return errors.Wrapf(ErrDuplicateAddress, "chunk %s at %#x", c.Code, c.OldAddress)
		}
	}
	return nil
}

// allocate is pass 1.
func (e *engine) allocate() error {
	for i := range e.states {
		st := &e.states[i]
		c := st.c

		fs := e.in.File.Struct(int(c.TypeID))
		if fs == nil {
			e.drop(c, "", "chunk type id out of range")
			continue
		}
		st.fs = fs
		ms := e.in.Memory.Struct(fs.Link)
		if ms == nil {
			e.drop(c, fs.Name, "struct not present in memory schema")
			continue
		}
		if ms.Link != fs.ID {
			return errors.Wrapf(ErrUnlinked, "struct %q", fs.Name)
		}
		if ms.Flags.Has(sdna.FlagSkip) {
			e.drop(c, fs.Name, "skipped by application")
			continue
		}
		st.ms = ms

		b := &Block{
			Code:       c.Code,
			OldAddress: c.OldAddress,
			TypeID:     ms.ID,
		}
		if e.in.File.IsLinkStruct(fs) {
			if len(c.Data) > e.limits.MaxAllocation {
				return errors.Wrapf(ErrBadAlloc, "chunk %s: %d bytes", c.Code, len(c.Data))
			}
			b.Raw = true
			b.Count = int(c.Count)
			b.Data = append([]byte(nil), c.Data...)
			b.span = len(c.Data)
			if e.filePtr > 0 {
				if n := len(c.Data) / e.filePtr * e.nativePtr; n > b.span {
					b.span = n
				}
			}
			e.res.Stats.Raw++
		} else {
			b.Count = e.records(c, fs)
			size, err := buf.RecordsSize(b.Count, ms.Length, e.limits.MaxAllocation)
			if err != nil {
				return errors.Wrapf(ErrBadAlloc, "chunk %s (%s × %d): %v", c.Code, ms.Name, b.Count, err)
			}
			b.Data = make([]byte, size)
			b.span = size
		}
		b.Address = e.reserve(b.span)
		st.block = b
		e.res.Blocks = append(e.res.Blocks, b)
	}
	return nil
}

// records clamps the declared record count to what the payload holds.
func (e *engine) records(c *chunk.Chunk, fs *sdna.Struct) int {
	n := int(c.Count)
	if fs.Length <= 0 {
		return n
	}
	if fit := len(c.Data) / fs.Length; n > fit {
		e.res.Stats.Clipped++
		e.diag.Chunk(types.SevWarning, fs.Name, c.OldAddress, "record count exceeds payload, clipped")
		return fit
	}
	return n
}

func (e *engine) reserve(n int) uint64 {
	addr := e.next
	if n < 1 {
		n = 1
	}
	e.next += (uint64(n) + addressAlign - 1) &^ (addressAlign - 1)
	return addr
}

func (e *engine) drop(c *chunk.Chunk, structure, issue string) {
	e.res.Stats.Dropped++
	e.diag.Chunk(types.SevInfo, structure, c.OldAddress, issue+", chunk dropped")
}

// copy is pass 2.
func (e *engine) copy() error {
	for i := range e.states {
		st := &e.states[i]
		if st.block == nil {
			continue
		}
		if !st.block.Raw {
			e.migrate(st)
		}
		e.res.Stats.Migrated++
		if e.opts.Notify != nil {
			if err := e.opts.Notify(st.block, st.c.Header); err != nil {
				return errors.Wrapf(err, "notify %s at %#x", st.c.Code, st.c.OldAddress)
			}
		}
	}
	return nil
}

// normalize rewrites the raw blocks no pointer reached when the file's
// byte order or pointer width differs from the host, so every block ends up
// in native layout.
func (e *engine) normalize() {
	if !e.swap && e.filePtr == e.nativePtr {
		return
	}
	for i := range e.states {
		st := &e.states[i]
		if st.block == nil || !st.block.Raw || st.block.Modified {
			continue
		}
		if e.convert(st, st.ms.Name, "") {
			e.res.Stats.Normalized++
		}
	}
}

// release is pass 3.
func (e *engine) release() {
	for i := range e.states {
		e.states[i].c.Data = nil
	}
	e.states = nil
}

// Resolve maps an address inside any migrated block to the block and the
// offset within it.
func (r *Result) Resolve(addr uint64) (*Block, int, bool) {
	i := sort.Search(len(r.Blocks), func(i int) bool { return r.Blocks[i].Address > addr })
	if i == 0 {
		return nil, 0, false
	}
	b := r.Blocks[i-1]
	off := addr - b.Address
	if off >= uint64(max(b.span, 1)) {
		return nil, 0, false
	}
	return b, int(off), true
}
