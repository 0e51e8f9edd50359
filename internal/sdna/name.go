package sdna

import (
	"strconv"
	"strings"

	"github.com/joshuapare/blendkit/internal/hashtab"
)

// Name is a member declarator from the name table, re-lexed into pointer
// and array metadata. "*foo[4][2]" has Pointers 1, Dims [4 2], ArraySize 8
// and Base "*foo".
type Name struct {
	Text      string
	Base      string
	Hash      uint32
	BaseHash  uint32
	Pointers  int
	FuncPtr   bool
	Dims      []int
	ArraySize int
}

// IsPointer reports whether the declarator has at least one indirection.
func (n *Name) IsPointer() bool { return n.Pointers > 0 }

// Ident returns the bare identifier: "(*draw)()" yields "draw", "**mat" yields "mat".
func (n *Name) Ident() string {
	s := strings.TrimLeft(n.Base, "(*")
	if i := strings.IndexAny(s, ")["); i >= 0 {
		s = s[:i]
	}
	return s
}

// ParseName lexes one declarator.
func ParseName(decl string) Name {
	n := Name{Text: decl, ArraySize: 1}

	i := 0
	if strings.HasPrefix(decl, "(*") {
		n.FuncPtr = true
		i = 1
	}
	for i < len(decl) && decl[i] == '*' {
		n.Pointers++
		i++
	}

	base := decl
	if open := strings.IndexByte(decl, '['); open >= 0 {
		base = decl[:open]
		rest := decl[open:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				break
			}
			dim, err := strconv.Atoi(rest[1:end])
			if err != nil || dim <= 0 {
				dim = 1
			}
			n.Dims = append(n.Dims, dim)
			n.ArraySize *= dim
			rest = rest[end+1:]
		}
	}
	n.Base = base
	n.Hash = hashtab.Hash32(decl)
	n.BaseHash = hashtab.Hash32(base)
	return n
}
