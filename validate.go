package mdstream

import (
	"errors"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports invalid UTF-8 input.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports input that appears to be binary.
	ErrBinaryInput = errors.New("binary input detected")
)

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateInput returns an error if src is not valid UTF-8 or looks binary.
func ValidateInput(src []byte) error {
	if !utf8.Valid(src) {
		return ErrInvalidUTF8
	}
	var total, control int
	for _, b := range src {
		total++
		if b == 0x00 {
			return ErrBinaryInput
		}
		if isControlByte(b) {
			control++
		}
	}
	if total >= minBinarySample && control*100 >= total*maxControlPct {
		return ErrBinaryInput
	}
	return nil
}

// inputFilter cleans raw reads before they reach the parser. Control runes
// and invalid bytes are dropped, or rejected in strict mode, and a UTF-8
// sequence cut by a read boundary is carried into the next read.
type inputFilter struct {
	strict  bool
	v       validator
	tail    [utf8.UTFMax]byte
	tailLen int
	buf     []byte
	bufArr  [4096 + utf8.UTFMax]byte
}

func (f *inputFilter) reset(strict bool) {
	f.strict = strict
	f.v.reset()
	f.tailLen = 0
	f.buf = f.bufArr[:0]
}

// filter returns the clean bytes of chunk. The result aliases internal
// storage and is valid until the next call.
func (f *inputFilter) filter(chunk []byte) ([]byte, error) {
	f.buf = append(f.buf[:0], f.tail[:f.tailLen]...)
	f.buf = append(f.buf, chunk...)
	if f.strict {
		if _, err := f.v.addBytes(f.buf); err != nil {
			return nil, err
		}
	}
	clean, rest := sanitizeBytes(f.buf, f.buf)
	f.tailLen = copy(f.tail[:], rest)
	return clean, nil
}

// finish reports a truncated sequence left at end of input in strict mode.
func (f *inputFilter) finish() error {
	if f.tailLen > 0 && f.strict {
		return ErrInvalidUTF8
	}
	f.tailLen = 0
	return nil
}

type validator struct {
	total   int
	control int
}

func (v *validator) reset() {
	v.total = 0
	v.control = 0
}

func (v *validator) addBytes(b []byte) ([]byte, error) {
	i := 0
	for i < len(b) {
		if !utf8.FullRune(b[i:]) {
			break
		}
		r, size := utf8.DecodeRune(b[i:])
		if err := v.addRune(r, size); err != nil {
			return nil, err
		}
		i += size
	}
	return b[i:], nil
}

func (v *validator) addRune(r rune, size int) error {
	if r == utf8.RuneError && size == 1 {
		return ErrInvalidUTF8
	}
	if r == 0 {
		return ErrBinaryInput
	}
	v.total += size
	if isControlRune(r) {
		v.control++
		if v.total >= minBinarySample && v.control*100 >= v.total*maxControlPct {
			return ErrBinaryInput
		}
	}
	return nil
}

func isControlByte(b byte) bool {
	return b < 0x09 || b > 0x0D && b < 0x20 || b == 0x7F
}

func isControlRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return false
	}
	return r < 0x20 || r == 0x7F
}

// sanitizeBytes copies the valid, non-control runes of src into dst and
// returns them with the incomplete sequence left at the end of src. dst may
// alias src.
func sanitizeBytes(dst []byte, src []byte) ([]byte, []byte) {
	di := 0
	i := 0
	for i < len(src) {
		if !utf8.FullRune(src[i:]) {
			break
		}
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if isControlRune(r) {
			i += size
			continue
		}
		copy(dst[di:], src[i:i+size])
		di += size
		i += size
	}
	return dst[:di], src[i:]
}
