package blend

import (
	"github.com/joshuapare/blendkit/internal/sdna"
)

// FieldInfo describes one flattened field of a compiled struct.
type FieldInfo struct {
	Path   string
	Type   string
	Decl   string
	Offset int
	Length int
	Flags  string
	// Linked is the path of the counterpart in the other schema.
	Linked string
}

// StructInfo describes one compiled struct.
type StructInfo struct {
	ID     int
	Name   string
	Length int
	Size   int
	Flags  string
	Fields []FieldInfo
}

// FileStructs lists the structs of the schema embedded in the file.
func (f *File) FileStructs() []StructInfo { return describe(f.fileTable, f.memTable) }

// MemoryStructs lists the structs of the schema blocks were migrated into.
func (f *File) MemoryStructs() []StructInfo { return describe(f.memTable, f.fileTable) }

func describe(t, other *sdna.Table) []StructInfo {
	if t == nil {
		return nil
	}
	out := make([]StructInfo, 0, len(t.Structs))
	for i := range t.Structs {
		s := &t.Structs[i]
		si := StructInfo{
			ID:     s.ID,
			Name:   s.Name,
			Length: s.Length,
			Size:   s.Size,
			Flags:  s.Flags.String(),
			Fields: make([]FieldInfo, 0, len(s.Fields)),
		}
		var peer *sdna.Struct
		if other != nil {
			peer = other.Struct(s.Link)
		}
		for j := range s.Fields {
			fl := &s.Fields[j]
			fi := FieldInfo{
				Path:   fl.Path,
				Type:   t.FieldType(fl).Name,
				Decl:   t.FieldName(fl).Text,
				Offset: fl.Offset,
				Length: fl.Length,
				Flags:  fl.Flags.String(),
			}
			if peer != nil && fl.Link >= 0 && fl.Link < len(peer.Fields) {
				fi.Linked = peer.Fields[fl.Link].Path
			}
			si.Fields = append(si.Fields, fi)
		}
		out = append(out, si)
	}
	return out
}
