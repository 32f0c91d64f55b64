package mdstream

import (
	"unicode"
	"unicode/utf8"
)

type scanResult uint8

const (
	scanLiteral scanResult = iota
	scanMatched
	scanPending
)

// inlineScanner turns a block's content range into inline elements in one
// left-to-right pass. In optimistic mode unclosed emphasis and code run to the
// end of the content, and a construct that could still complete stops the
// scan and is reported through pending.
type inlineScanner struct {
	src        string
	optimistic bool
	pending    int
}

// scanInline scans confirmed content. Anything unclosed is literal text.
func scanInline(src string, content Span) []Inline {
	s := inlineScanner{src: src, pending: -1}
	return s.scan(content.Start, content.End)
}

// scanInlinePartial scans content that may still grow. The returned span
// covers the trailing construct that is waiting for more input.
func scanInlinePartial(src string, content Span) ([]Inline, Span, bool) {
	s := inlineScanner{src: src, optimistic: true, pending: -1}
	out := s.scan(content.Start, content.End)
	if s.pending >= 0 {
		return out, Span{Start: s.pending, End: content.End}, true
	}
	return out, Span{}, false
}

func (s *inlineScanner) scan(start, end int) []Inline {
	var out []Inline
	text := start
	i := start
	for i < end {
		var (
			el   Inline
			next int
			res  scanResult
		)
		switch s.src[i] {
		case '\\':
			if i+1 < end && isASCIIPunct(s.src[i+1]) {
				out = appendText(out, text, i)
				text = i + 1
				i += 2
				continue
			}
			i++
			continue
		case '\n':
			if j := hardBreakStart(s.src, text, i); j >= 0 {
				out = appendText(out, text, j)
				out = append(out, LineBreak{})
				text = i + 1
			}
			i++
			continue
		case '`':
			el, next, res = s.codeSpan(i, end)
		case '*', '_', '~':
			el, next, res = s.delimited(start, i, end)
		case '[', '!':
			el, next, res = s.link(i, end)
		default:
			i++
			continue
		}
		switch res {
		case scanMatched:
			out = appendText(out, text, i)
			out = append(out, el)
			text = next
		case scanPending:
			out = appendText(out, text, i)
			s.pending = i
			return out
		}
		i = next
	}
	return appendText(out, text, end)
}

func appendText(out []Inline, start, end int) []Inline {
	if end <= start {
		return out
	}
	if n := len(out); n > 0 {
		if t, ok := out[n-1].(Text); ok && t.Span.End == start {
			out[n-1] = Text{Span: Span{Start: t.Span.Start, End: end}}
			return out
		}
	}
	return append(out, Text{Span: Span{Start: start, End: end}})
}

// hardBreakStart returns where the trailing spaces of a hard line break begin,
// or -1 when the newline at nl is a soft break.
func hardBreakStart(src string, text, nl int) int {
	k := nl
	if k > text && src[k-1] == '\r' {
		k--
	}
	j := k
	for j > text && src[j-1] == ' ' {
		j--
	}
	if k-j >= 2 {
		return j
	}
	return -1
}

func runLength(src string, i, end int, c byte) int {
	n := 0
	for i+n < end && src[i+n] == c {
		n++
	}
	return n
}

func (s *inlineScanner) codeSpan(i, end int) (Inline, int, scanResult) {
	n := runLength(s.src, i, end, '`')
	after := i + n
	if s.optimistic && after == end {
		return nil, 0, scanPending
	}
	closeAt := findCodeClose(s.src, after, end, n)
	if closeAt < 0 {
		if s.optimistic {
			return Code{Span: trimCodeSpan(s.src, after, end)}, end, scanMatched
		}
		return nil, after, scanLiteral
	}
	return Code{Span: trimCodeSpan(s.src, after, closeAt)}, closeAt + n, scanMatched
}

func findCodeClose(src string, from, end, n int) int {
	for j := from; j < end; {
		if src[j] != '`' {
			j++
			continue
		}
		m := runLength(src, j, end, '`')
		if m == n {
			return j
		}
		j += m
	}
	return -1
}

// trimCodeSpan strips one space from each side when both sides have one and
// the content is not all spaces.
func trimCodeSpan(src string, start, end int) Span {
	if end-start >= 2 && src[start] == ' ' && src[end-1] == ' ' {
		for k := start; k < end; k++ {
			if src[k] != ' ' {
				return Span{Start: start + 1, End: end - 1}
			}
		}
	}
	return Span{Start: start, End: end}
}

func (s *inlineScanner) delimited(lo, i, end int) (Inline, int, scanResult) {
	c := s.src[i]
	n := runLength(s.src, i, end, c)
	after := i + n
	if s.optimistic && after == end {
		return nil, 0, scanPending
	}
	if c == '~' && n != 2 || c != '~' && n > 3 {
		return nil, after, scanLiteral
	}
	if after >= end || isWhite(s.src[after]) {
		return nil, after, scanLiteral
	}
	if c == '_' && i > lo && !boundaryBefore(s.src, i) {
		return nil, after, scanLiteral
	}
	closeAt := s.findDelimClose(c, n, after, end)
	if closeAt < 0 {
		if !s.optimistic {
			return nil, after, scanLiteral
		}
		return wrapDelimited(c, n, s.scan(after, end)), end, scanMatched
	}
	inner := inlineScanner{src: s.src, pending: -1}
	return wrapDelimited(c, n, inner.scan(after, closeAt)), closeAt + n, scanMatched
}

func (s *inlineScanner) findDelimClose(c byte, n, from, end int) int {
	for j := from; j < end; {
		switch s.src[j] {
		case '\\':
			j += 2
			continue
		case '`':
			m := runLength(s.src, j, end, '`')
			if k := findCodeClose(s.src, j+m, end, m); k >= 0 {
				j = k + m
			} else {
				j += m
			}
			continue
		case c:
			m := runLength(s.src, j, end, c)
			if m == n && !isWhite(s.src[j-1]) && (c != '_' || j+m == end || boundaryAfter(s.src, j+m)) {
				return j
			}
			j += m
			continue
		}
		j++
	}
	return -1
}

func wrapDelimited(c byte, n int, children []Inline) Inline {
	if c == '~' {
		return Strikethrough{Children: children}
	}
	switch n {
	case 1:
		return Italic{Children: children}
	case 2:
		return Bold{Children: children}
	}
	return BoldItalic{Children: children}
}

func (s *inlineScanner) link(i, end int) (Inline, int, scanResult) {
	image := s.src[i] == '!'
	open := i
	if image {
		if i+1 >= end {
			if s.optimistic {
				return nil, 0, scanPending
			}
			return nil, i + 1, scanLiteral
		}
		if s.src[i+1] != '[' {
			return nil, i + 1, scanLiteral
		}
		open = i + 1
	}
	closeBracket := matchBracket(s.src, open+1, end)
	if closeBracket < 0 || closeBracket+1 >= end {
		if s.optimistic {
			return nil, 0, scanPending
		}
		return nil, i + 1, scanLiteral
	}
	if s.src[closeBracket+1] != '(' {
		return nil, i + 1, scanLiteral
	}
	closeParen := matchParen(s.src, closeBracket+2, end)
	if closeParen < 0 {
		if s.optimistic {
			return nil, 0, scanPending
		}
		return nil, i + 1, scanLiteral
	}
	url, off := trimSpace(s.src[closeBracket+2 : closeParen])
	urlSpan := Span{Start: closeBracket + 2 + off, End: closeBracket + 2 + off + len(url)}
	if image {
		return Image{Alt: Span{Start: open + 1, End: closeBracket}, URL: urlSpan}, closeParen + 1, scanMatched
	}
	inner := inlineScanner{src: s.src, pending: -1}
	return Link{Text: inner.scan(open+1, closeBracket), URL: urlSpan}, closeParen + 1, scanMatched
}

func matchBracket(src string, from, end int) int {
	depth := 0
	for j := from; j < end; j++ {
		switch src[j] {
		case '\\':
			j++
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

func matchParen(src string, from, end int) int {
	depth := 0
	for j := from; j < end; j++ {
		switch src[j] {
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

func isWhite(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isASCIIPunct(b byte) bool {
	return b >= '!' && b <= '/' || b >= ':' && b <= '@' || b >= '[' && b <= '`' || b >= '{' && b <= '~'
}

// boundaryBefore reports whether the rune before i is whitespace or
// punctuation.
func boundaryBefore(src string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(src[:i])
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func boundaryAfter(src string, i int) bool {
	r, _ := utf8.DecodeRuneInString(src[i:])
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
