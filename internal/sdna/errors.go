package sdna

import "github.com/pkg/errors"

var (
	// ErrMissingTag indicates a section tag (SDNA, NAME, TYPE, TLEN, STRC) was not found.
	ErrMissingTag = errors.New("sdna: missing section tag")
	// ErrTruncated indicates the blob ended inside a section.
	ErrTruncated = errors.New("sdna: truncated schema")
	// ErrTableFull indicates a table declared more entries than the configured limit.
	ErrTableFull = errors.New("sdna: table size exceeded")
	// ErrBadIndex indicates a struct referenced a type or name outside the tables.
	ErrBadIndex = errors.New("sdna: index out of range")
	// ErrDuplicate indicates a type name or struct type was declared twice.
	ErrDuplicate = errors.New("sdna: duplicate declaration")
)
