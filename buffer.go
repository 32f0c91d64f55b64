package mdstream

import (
	"strconv"
	"unsafe"
)

// Span is a half-open byte range [Start, End) into a parser's buffer.
//
// Spans are offsets, not pointers, so they stay valid while the buffer grows.
// Resolve them against the string returned by Parser.Buffer.
type Span struct {
	Start int
	End   int
}

// Resolve returns the text covered by the span. It panics when the span does
// not fit in src, which means the span came from another parser or from
// before a Reset.
func (s Span) Resolve(src string) string {
	if s.Start < 0 || s.Start > s.End || s.End > len(src) {
		panic("mdstream: span [" + strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.End) +
			"] out of range for buffer of length " + strconv.Itoa(len(src)))
	}
	return src[s.Start:s.End]
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

func (s Span) String() string {
	return "[" + strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.End) + "]"
}

// appendBuffer owns every byte pushed into a parser. Bytes below len(data)
// are never written again: growth copies into a new array and leaves the old
// one to any string views still holding it.
type appendBuffer struct {
	data []byte
}

func (b *appendBuffer) append(chunk string) Span {
	start := len(b.data)
	b.data = append(b.data, chunk...)
	return Span{Start: start, End: len(b.data)}
}

func (b *appendBuffer) appendBytes(chunk []byte) Span {
	start := len(b.data)
	b.data = append(b.data, chunk...)
	return Span{Start: start, End: len(b.data)}
}

func (b *appendBuffer) len() int {
	return len(b.data)
}

// view returns a zero-copy string over the buffer contents.
func (b *appendBuffer) view() string {
	return bytesToString(b.data)
}

// release drops the backing array instead of truncating it, so views handed
// out before a reset keep their bytes.
func (b *appendBuffer) release() {
	b.data = nil
}

func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
