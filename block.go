package mdstream

// Line classification. Every helper works on one physical line of the buffer
// with the newline (and a trailing \r) already removed, and reports offsets
// relative to the text it was given.

type lineKind uint8

const (
	lineParagraph lineKind = iota
	lineBlank
	lineFence
	lineHeading
	lineThematicBreak
	lineTableCandidate
)

func classifyLine(text string) lineKind {
	trim, _ := trimSpace(text)
	switch {
	case trim == "":
		return lineBlank
	case isFenceOpen(trim):
		return lineFence
	case isHeading(trim):
		return lineHeading
	case isThematicBreak(trim):
		return lineThematicBreak
	case hasUnescapedPipe(trim):
		return lineTableCandidate
	}
	return lineParagraph
}

// trimSpace trims spaces and tabs from both ends and returns the offset of
// the first kept byte.
func trimSpace(s string) (string, int) {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end], start
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}

func stripCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}

// parseHeading reads an ATX heading from trimmed text. The content bounds are
// relative to text and already trimmed; an empty heading has start == end.
func parseHeading(text string) (level, start, end int, ok bool) {
	for level < len(text) && text[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, 0, 0, false
	}
	if level < len(text) && !isSpace(text[level]) {
		return 0, 0, 0, false
	}
	rest, off := trimSpace(text[level:])
	start = level + off
	return level, start, start + len(rest), true
}

func isHeading(text string) bool {
	_, _, _, ok := parseHeading(text)
	return ok
}

type fenceInfo struct {
	char      byte
	length    int
	langStart int
	langEnd   int
}

func (f fenceInfo) hasLang() bool {
	return f.langEnd > f.langStart
}

// parseFenceOpen reads an opening fence from trimmed text. The language tag is
// the first word of the info string.
func parseFenceOpen(text string) (fenceInfo, bool) {
	if len(text) < 3 || (text[0] != '`' && text[0] != '~') {
		return fenceInfo{}, false
	}
	ch := text[0]
	n := 0
	for n < len(text) && text[n] == ch {
		n++
	}
	if n < 3 {
		return fenceInfo{}, false
	}
	info, off := trimSpace(text[n:])
	if ch == '`' {
		for i := 0; i < len(info); i++ {
			if info[i] == '`' {
				return fenceInfo{}, false
			}
		}
	}
	word := 0
	for word < len(info) && !isSpace(info[word]) {
		word++
	}
	start := n + off
	return fenceInfo{char: ch, length: n, langStart: start, langEnd: start + word}, true
}

func isFenceOpen(text string) bool {
	_, ok := parseFenceOpen(text)
	return ok
}

// isFenceClose reports whether the line closes a fence of ch repeated at
// least n times.
func isFenceClose(text string, ch byte, n int) bool {
	trim, _ := trimSpace(text)
	if len(trim) < n {
		return false
	}
	for i := 0; i < len(trim); i++ {
		if trim[i] != ch {
			return false
		}
	}
	return true
}

// mayBecomeFenceClose reports whether an unterminated line could still grow
// into a closing fence.
func mayBecomeFenceClose(text string, ch byte) bool {
	trim, _ := trimSpace(text)
	for i := 0; i < len(trim); i++ {
		if trim[i] != ch {
			return false
		}
	}
	return true
}

// isThematicBreak accepts three or more of one of -, * or _ with at most one
// space between them.
func isThematicBreak(text string) bool {
	if len(text) < 3 {
		return false
	}
	ch := text[0]
	if ch != '-' && ch != '*' && ch != '_' {
		return false
	}
	count := 0
	prevSpace := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ch:
			count++
			prevSpace = false
		case ' ':
			if prevSpace {
				return false
			}
			prevSpace = true
		default:
			return false
		}
	}
	return count >= 3
}

func hasUnescapedPipe(text string) bool {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '|':
			return true
		}
	}
	return false
}

// splitRow returns trimmed cell bounds, relative to text, for a table row.
// One leading and one trailing pipe are dropped; escaped pipes stay in cells.
func splitRow(text string, dst []Span) []Span {
	trim, off := trimSpace(text)
	start := off
	end := off + len(trim)
	if start < end && text[start] == '|' {
		start++
	}
	if end > start && text[end-1] == '|' && !isEscaped(text, end-1) {
		end--
	}
	cell := start
	for i := start; i <= end; i++ {
		if i < end {
			if text[i] == '\\' && i+1 < end {
				i++
				continue
			}
			if text[i] != '|' {
				continue
			}
		}
		c, coff := trimSpace(text[cell:min(i, end)])
		if c == "" {
			dst = append(dst, Span{Start: cell, End: cell})
		} else {
			dst = append(dst, Span{Start: cell + coff, End: cell + coff + len(c)})
		}
		cell = i + 1
	}
	return dst
}

func isEscaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// isSeparatorRow reports whether text is a delimiter row such as
// |:---|---:|. The cell count may differ from the header's.
func isSeparatorRow(text string) bool {
	if !hasUnescapedPipe(text) {
		return false
	}
	var arr [32]Span
	cells := splitRow(text, arr[:0])
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		cell := text[c.Start:c.End]
		if len(cell) > 0 && cell[0] == ':' {
			cell = cell[1:]
		}
		if len(cell) > 0 && cell[len(cell)-1] == ':' {
			cell = cell[:len(cell)-1]
		}
		if cell == "" {
			return false
		}
		for i := 0; i < len(cell); i++ {
			if cell[i] != '-' {
				return false
			}
		}
	}
	return true
}

func offsetSpans(spans []Span, base int) []Span {
	for i := range spans {
		spans[i].Start += base
		spans[i].End += base
	}
	return spans
}
