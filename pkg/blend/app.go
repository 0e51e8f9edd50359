package blend

import (
	"github.com/joshuapare/blendkit/internal/chunk"
	"github.com/joshuapare/blendkit/internal/hashtab"
	"github.com/joshuapare/blendkit/internal/migrate"
)

// Block is one migrated data block. Data is laid out in the memory schema,
// native byte order and native pointer width; pointers hold addresses of
// other blocks (see File.Resolve).
type Block = migrate.Block

// Code is a chunk identifier.
type Code = chunk.Code

// ChunkHeader is a chunk header as read from the file.
type ChunkHeader = chunk.Header

// FileHeader is the decoded 12-byte file header.
type FileHeader = chunk.FileHeader

// MakeCode builds a code from up to four characters.
func MakeCode(s string) Code { return chunk.MakeCode(s) }

// Application adapts the generic loader to one program's data model.
type Application interface {
	// Schema returns the schema blob the application was built with, in
	// native byte order. A nil blob loads files with their own schema.
	Schema() ([]byte, error)

	// Skip reports whether structs with the given type-name hash are left
	// out of migration.
	Skip(typeHash uint32) bool

	// NotifyData receives every migrated block with its original header.
	NotifyData(b *Block, h ChunkHeader) error

	// WriteData emits the application's blocks during Reflect.
	WriteData(w *Writer) error
}

// Lists is the default Application: it buckets blocks by chunk code and
// writes all of them back on Reflect.
type Lists struct {
	schema []byte
	skip   *hashtab.Table[hashtab.U32, struct{}]

	all    []*Block
	byCode map[Code][]*Block
	codes  []Code
}

// NewLists creates a Lists application. A nil schema uses each file's own.
// Structs named in skip are never migrated.
func NewLists(schema []byte, skip ...string) *Lists {
	l := &Lists{
		schema: schema,
		skip:   hashtab.New[hashtab.U32, struct{}](len(skip)),
		byCode: make(map[Code][]*Block),
	}
	for _, name := range skip {
		l.skip.Insert(hashtab.U32(hashtab.Hash32(name)), struct{}{})
	}
	return l
}

// HashTypeName returns the hash Skip receives for a struct type name.
func HashTypeName(name string) uint32 { return hashtab.Hash32(name) }

func (l *Lists) Schema() ([]byte, error) { return l.schema, nil }

func (l *Lists) Skip(typeHash uint32) bool {
	return l.skip.Find(hashtab.U32(typeHash)) != hashtab.NotFound
}

func (l *Lists) NotifyData(b *Block, h ChunkHeader) error {
	if _, ok := l.byCode[h.Code]; !ok {
		l.codes = append(l.codes, h.Code)
	}
	l.byCode[h.Code] = append(l.byCode[h.Code], b)
	l.all = append(l.all, b)
	return nil
}

func (l *Lists) WriteData(w *Writer) error {
	for _, b := range l.all {
		if err := w.WriteBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// Reset forgets every collected block. File calls it before each parse.
func (l *Lists) Reset() {
	l.all = nil
	l.codes = nil
	l.byCode = make(map[Code][]*Block)
}

// Blocks returns the blocks that were stored under code, in file order.
func (l *Lists) Blocks(code Code) []*Block { return l.byCode[code] }

// Codes returns every code seen, in first-seen order.
func (l *Lists) Codes() []Code { return l.codes }

// All returns every block in file order.
func (l *Lists) All() []*Block { return l.all }
