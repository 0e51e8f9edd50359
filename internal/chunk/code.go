package chunk

// Code is a chunk identifier. Its value is the four code bytes in file order
// read as a little-endian word, so Code("DNA1") compares equal no matter
// which byte order the file or host uses.
type Code uint32

// MakeCode builds a code from up to four characters; shorter codes are
// zero padded ("SC" is "SC\x00\x00").
func MakeCode(s string) Code {
	var c Code
	for i := 0; i < 4 && i < len(s); i++ {
		c |= Code(s[i]) << (8 * i)
	}
	return c
}

// Reserved and common codes.
var (
	CodeDNA1 = MakeCode("DNA1") // schema blob
	CodeENDB = MakeCode("ENDB") // end of stream
	CodeDATA = MakeCode("DATA") // anonymous data block
	CodeGLOB = MakeCode("GLOB")
	CodeREND = MakeCode("REND")
	CodeTEST = MakeCode("TEST")
	CodeUSER = MakeCode("USER")
)

// Bytes returns the four code bytes.
func (c Code) Bytes() [4]byte {
	return [4]byte{byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)}
}

// IsShort reports whether the code is a two-character identifier.
func (c Code) IsShort() bool { return c>>16 == 0 }

func (c Code) String() string {
	b := c.Bytes()
	n := 4
	for n > 0 && b[n-1] == 0 {
		n--
	}
	out := make([]byte, 0, n)
	for _, ch := range b[:n] {
		if ch < 0x20 || ch > 0x7e {
			ch = '.'
		}
		out = append(out, ch)
	}
	return string(out)
}

// normalize moves two-character codes written by big-endian producers
// ("\x00\x00SC") into the canonical low half.
func normalize(c Code) Code {
	if c != 0 && c&0xFFFF == 0 {
		return c >> 16
	}
	return c
}
