// Package link matches the structs and fields of the schema a file was
// written with against the schema the application expects.
//
// Matching is by name and type, never by offset, because layouts are free to
// reorder fields between versions. Links are stored as indices in both
// directions: a memory struct's Link is the id of its file struct and the
// file struct's Link points back.
package link

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/diag"
	"github.com/joshuapare/blendkit/internal/sdna"
	"github.com/joshuapare/blendkit/pkg/types"
)

// ErrConflict indicates a file struct or field was claimed by two memory
// counterparts, which only happens with an inconsistent schema.
var ErrConflict = errors.New("link: conflicting match")

// Options configures a link pass.
type Options struct {
	// Skip excludes memory structs by type-name hash.
	Skip func(typeHash uint32) bool
	Diag *diag.Recorder
}

// Stats summarizes a link pass.
type Stats struct {
	Structs        int
	MissingStructs int
	Fields         int
	MissingFields  int
	Casts          int
}

// Link resets all links of mem and file, then matches them.
func Link(mem, file *sdna.Table, opts Options) (Stats, error) {
	var st Stats
	if mem == nil || file == nil {
		return st, errors.Wrap(ErrConflict, "nil schema table")
	}
	reset(mem)
	reset(file)

	for id := range mem.Structs {
		ms := &mem.Structs[id]
		st.Structs++

		if opts.Skip != nil && opts.Skip(ms.TypeHash) {
			ms.Flags |= sdna.FlagSkip
		}

		fs := file.StructByHash(ms.TypeHash)
		if fs == nil {
			ms.Flags |= sdna.FlagMissing
			for i := range ms.Fields {
				ms.Fields[i].Flags |= sdna.FlagMissing
			}
			st.MissingStructs++
			opts.Diag.Link(types.SevInfo, ms.Name, "", "struct not present in file")
			continue
		}
		if fs.Link != sdna.NoLink {
			return st, errors.Wrapf(ErrConflict, "file struct %q already linked to memory struct %d", fs.Name, fs.Link)
		}
		ms.Link = fs.ID
		fs.Link = ms.ID

		if err := linkFields(mem, file, ms, fs, opts.Diag, &st); err != nil {
			return st, err
		}
	}

	for id := range file.Structs {
		fs := &file.Structs[id]
		if fs.Link == sdna.NoLink {
			fs.Flags |= sdna.FlagMissing
		}
		for i := range fs.Fields {
			if fs.Fields[i].Link == sdna.NoLink {
				fs.Fields[i].Flags |= sdna.FlagMissing
			}
		}
	}
	return st, nil
}

func reset(t *sdna.Table) {
	for id := range t.Structs {
		s := &t.Structs[id]
		s.Link = sdna.NoLink
		s.Flags &^= sdna.FlagMissing | sdna.FlagSkip
		for i := range s.Fields {
			s.Fields[i].Link = sdna.NoLink
			s.Fields[i].Flags &^= sdna.FlagMissing | sdna.FlagNeedCast
		}
	}
}

func linkFields(mem, file *sdna.Table, ms, fs *sdna.Struct, rec *diag.Recorder, st *Stats) error {
	for i := range ms.Fields {
		mf := &ms.Fields[i]
		st.Fields++

		j, cast := match(mf, fs)
		if j == sdna.NoLink {
			mf.Flags |= sdna.FlagMissing
			st.MissingFields++
			rec.Link(types.SevWarning, ms.Name, mf.Path, "field not present in file, zero-filled")
			continue
		}
		ff := &fs.Fields[j]
		if ff.Link != sdna.NoLink {
			return errors.Wrapf(ErrConflict, "%s.%s matched twice", fs.Name, ff.Path)
		}
		mf.Link = j
		ff.Link = i
		if cast {
			mf.Flags |= sdna.FlagNeedCast
			ff.Flags |= sdna.FlagNeedCast
			st.Casts++
			rec.Link(types.SevInfo, ms.Name, mf.Path, "numeric cast from "+
				file.FieldType(ff).Name+" to "+mem.FieldType(mf).Name)
		}
	}
	return nil
}

// match finds the file field for mf. It returns the field index (or NoLink)
// and whether a value-converting cast is required.
func match(mf *sdna.Field, fs *sdna.Struct) (int, bool) {
	for j := range fs.Fields {
		ff := &fs.Fields[j]
		if ff.ArrayIndex != mf.ArrayIndex || ff.Depth != mf.Depth ||
			ff.BaseHash != mf.BaseHash || !ff.SameChain(mf) {
			continue
		}
		switch {
		case ff.TypeHash == mf.TypeHash:
			return j, false
		case mf.IsPointer() || ff.IsPointer():
			// pointers only match on identical types
		case ff.Kind.IsInteger() && mf.Kind.IsInteger():
			return j, false
		case ff.Kind.IsNumber() && mf.Kind.IsNumber():
			return j, true
		}
		return sdna.NoLink, false
	}
	return sdna.NoLink, false
}
