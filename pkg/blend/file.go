package blend

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/chunk"
	"github.com/joshuapare/blendkit/internal/diag"
	"github.com/joshuapare/blendkit/internal/link"
	"github.com/joshuapare/blendkit/internal/migrate"
	"github.com/joshuapare/blendkit/internal/mmfile"
	"github.com/joshuapare/blendkit/internal/sdna"
	"github.com/joshuapare/blendkit/internal/stream"
	"github.com/joshuapare/blendkit/pkg/types"
)

// ChunkInfo describes one chunk as it appeared in the file.
type ChunkInfo struct {
	ChunkHeader
	Offset int64
}

// File is one parse of one file. It is not safe for concurrent use.
type File struct {
	app  Application
	opts Options

	header      FileHeader
	compression Compression
	chunks      []ChunkInfo

	fileTable *sdna.Table
	memTable  *sdna.Table
	linkStats link.Stats
	result    *migrate.Result
	rec       *diag.Recorder
}

// New creates a File bound to app. A nil app uses NewLists(nil).
func New(app Application, opts *Options) *File {
	if app == nil {
		app = NewLists(nil)
	}
	return &File{app: app, opts: opts.withDefaults()}
}

// Open parses path with the file's own schema.
func Open(path string, opts *Options) (*File, error) {
	f := New(nil, opts)
	if err := f.Parse(path); err != nil {
		return nil, err
	}
	return f, nil
}

// Parse reads, links and migrates the file at path.
func (f *File) Parse(path string) error {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return types.NewError(types.StatusFailed, "blend: open "+path, err)
	}
	defer release()
	return f.ParseBytes(data)
}

// ParseBytes reads, links and migrates an in-memory file. Gzip and zstd
// envelopes are detected and removed. data is not retained.
func (f *File) ParseBytes(data []byte) error {
	f.reset()
	limits := f.opts.limits()

	plain := data
	if !bytes.HasPrefix(data, []byte(f.opts.Magic)) {
		var err error
		plain, f.compression, err = stream.Decompress(data, limits.MaxAllocation)
		if err != nil && !errors.Is(err, stream.ErrTooLarge) {
			return types.NewError(types.StatusInvalidRead, "blend: decompress", err)
		}
		if err != nil {
			return wrap(err, "blend: decompress")
		}
	}

	r, err := chunk.NewReader(bytes.NewReader(plain), f.opts.Magic, limits.MaxChunkLength)
	if err != nil {
		return wrap(err, "blend: header")
	}
	f.header = r.FileHeader()
	log := f.rec.Logger().WithField("version", f.header.Version)
	log.WithField("pointer_size", f.header.PointerSize).
		WithField("endian", f.header.Endian.String()).
		Debug("reading chunks")

	var dna []byte
	var payload []*chunk.Chunk
	for {
		off := r.Offset()
		c, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return wrap(err, "blend: chunk")
		}
		f.chunks = append(f.chunks, ChunkInfo{ChunkHeader: c.Header, Offset: off})
		switch c.Code {
		case chunk.CodeENDB:
		case chunk.CodeDNA1:
			dna = c.Data
		default:
			payload = append(payload, c)
		}
	}
	if dna == nil {
		return types.NewError(types.StatusInvalidSchema, "blend: no schema chunk", nil)
	}

	f.fileTable, err = sdna.Parse(dna, sdna.Options{
		Endian:      f.header.Endian,
		PointerSize: f.header.PointerSize,
		Limits:      limits,
		Diag:        f.rec,
	})
	if err != nil {
		return wrap(err, "blend: file schema")
	}
	if err := f.loadMemorySchema(limits); err != nil {
		return err
	}

	f.linkStats, err = link.Link(f.memTable, f.fileTable, link.Options{Skip: f.app.Skip, Diag: f.rec})
	if err != nil {
		return wrap(err, "blend: link")
	}

	f.result, err = migrate.Run(migrate.Input{
		File:   f.fileTable,
		Memory: f.memTable,
		Header: f.header,
		Chunks: payload,
	}, migrate.Options{
		Notify: f.app.NotifyData,
		Limits: limits,
		Diag:   f.rec,
	})
	if err != nil {
		return wrap(err, "blend: migrate")
	}
	log.WithField("blocks", len(f.result.Blocks)).
		WithField("dropped", f.result.Stats.Dropped).
		Debug("migrated")
	return nil
}

// loadMemorySchema compiles the application's schema, or the file's own
// re-encoded for this host when the application has none.
func (f *File) loadMemorySchema(limits types.Limits) error {
	blob, err := f.app.Schema()
	if err != nil {
		return types.NewError(types.StatusFailed, "blend: application schema", err)
	}
	if blob == nil {
		blob, err = f.fileTable.Encode(buf.NativeEndian(), f.opts.PointerSize)
		if err != nil {
			return wrap(err, "blend: encode file schema")
		}
	}
	f.memTable, err = sdna.Parse(blob, sdna.Options{
		Endian:      buf.NativeEndian(),
		PointerSize: f.opts.PointerSize,
		Limits:      limits,
		Diag:        f.rec,
	})
	if err != nil {
		return wrap(err, "blend: memory schema")
	}
	return nil
}

func (f *File) reset() {
	if r, ok := f.app.(interface{ Reset() }); ok {
		r.Reset()
	}
	f.header = FileHeader{}
	f.compression = CompressNone
	f.chunks = nil
	f.fileTable, f.memTable = nil, nil
	f.linkStats = link.Stats{}
	f.result = nil
	f.rec = diag.New(f.opts.Logger)
}

// Application returns the application the file was parsed with.
func (f *File) Application() Application { return f.app }

// Header returns the parsed file header.
func (f *File) Header() FileHeader { return f.header }

// Compression reports the envelope the input was wrapped in.
func (f *File) Compression() Compression { return f.compression }

// Chunks lists every chunk of the input, including the schema and end chunks.
func (f *File) Chunks() []ChunkInfo { return f.chunks }

// Blocks returns every migrated block in address order.
func (f *File) Blocks() []*Block {
	if f.result == nil {
		return nil
	}
	return f.result.Blocks
}

// Resolve maps an address stored in a pointer field to its block and the
// byte offset inside it.
func (f *File) Resolve(addr uint64) (*Block, int, bool) {
	if f.result == nil {
		return nil, 0, false
	}
	return f.result.Resolve(addr)
}

// Diagnostics returns what the parse had to drop or zero.
func (f *File) Diagnostics() *types.Report {
	if f.rec == nil {
		return types.NewReport()
	}
	return f.rec.Report()
}

// Stats summarizes the last parse.
type Stats struct {
	Link    link.Stats
	Migrate migrate.Stats
}

// Stats returns link and migration counters of the last parse.
func (f *File) Stats() Stats {
	s := Stats{Link: f.linkStats}
	if f.result != nil {
		s.Migrate = f.result.Stats
	}
	return s
}

func (f *File) parsed() error {
	if f.result == nil || f.memTable == nil {
		return errors.New("blend: no file parsed")
	}
	return nil
}
