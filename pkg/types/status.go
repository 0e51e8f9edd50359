package types

// -----------------------------------------------------------------------------
// Status codes and typed errors
// -----------------------------------------------------------------------------

// Status is the closed set of outcomes of a parse or reflect call.
type Status int

const (
	StatusOK              Status = iota
	StatusFailed                 // generic failure (I/O, application hook)
	StatusInvalidHeader          // magic or pointer/endian markers unrecognized
	StatusInvalidLength          // chunk declares the "no length" sentinel
	StatusInvalidRead            // stream underrun or corrupt chunk
	StatusBadAlloc               // allocation refused (exceeds limits)
	StatusInsertionFailed        // duplicate old address in the chunk map
	StatusLinkFailed             // schema linking hit an internal inconsistency
	StatusInvalidSchema          // schema blob could not be compiled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusInvalidHeader:
		return "invalid header"
	case StatusInvalidLength:
		return "invalid length"
	case StatusInvalidRead:
		return "invalid read"
	case StatusBadAlloc:
		return "bad alloc"
	case StatusInsertionFailed:
		return "insertion failed"
	case StatusLinkFailed:
		return "link failed"
	case StatusInvalidSchema:
		return "invalid schema"
	}
	return "unknown status"
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Status Status
	Msg    string
	Err    error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same status, so wrapped errors compare equal
// to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Status == t.Status
}

// Sentinels, one per failing status.
var (
	ErrFailed          = &Error{Status: StatusFailed, Msg: "blend: failed"}
	ErrInvalidHeader   = &Error{Status: StatusInvalidHeader, Msg: "blend: invalid file header"}
	ErrInvalidLength   = &Error{Status: StatusInvalidLength, Msg: "blend: invalid chunk length"}
	ErrInvalidRead     = &Error{Status: StatusInvalidRead, Msg: "blend: invalid read"}
	ErrBadAlloc        = &Error{Status: StatusBadAlloc, Msg: "blend: allocation refused"}
	ErrInsertionFailed = &Error{Status: StatusInsertionFailed, Msg: "blend: duplicate chunk address"}
	ErrLinkFailed      = &Error{Status: StatusLinkFailed, Msg: "blend: schema link failed"}
	ErrInvalidSchema   = &Error{Status: StatusInvalidSchema, Msg: "blend: invalid schema"}
)

// NewError wraps cause with status s.
func NewError(s Status, msg string, cause error) *Error {
	return &Error{Status: s, Msg: msg, Err: cause}
}

// StatusOf extracts the status carried by err. A nil error is StatusOK and
// errors without a status are StatusFailed.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	for e := err; e != nil; {
		if te, ok := e.(*Error); ok && te != nil {
			return te.Status
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return StatusFailed
}
