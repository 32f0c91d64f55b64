package mdstream

import (
	"iter"
	"strings"

	"github.com/charmbracelet/log"
)

type blockMode uint8

const (
	modeNone blockMode = iota
	modeFence
	modeTableCandidate
	modeTable
)

// Parser incrementally parses Markdown pushed in arbitrary chunks.
//
// Blocks are classified one complete line at a time. The unterminated tail of
// the buffer is never classified until its newline arrives or Finalize runs,
// so the confirmed output does not depend on where chunks were split.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	buf     appendBuffer
	cursor  int
	scanned int
	mode    blockMode
	closed  bool
	logger  *log.Logger

	para      bool
	paraStart int
	paraEnd   int

	fence        fenceInfo
	fenceStart   int
	fenceLang    Span
	contentStart int

	tableStart int
	headerLine Span
	header     []Span
	rows       [][]Span

	queue []Element
	head  int

	queueArr [16]Element
}

// NewParser returns an empty parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	p.queue = p.queueArr[:0]
	cfg := newConfig(opts)
	p.logger = cfg.logger
	return p
}

// Reset clears the buffer and all parse state. Spans issued before Reset
// must not be resolved against the new buffer; strings returned by Buffer
// before Reset stay valid.
func (p *Parser) Reset() {
	p.buf.release()
	p.cursor = 0
	p.scanned = 0
	p.mode = modeNone
	p.closed = false
	p.para = false
	p.paraStart, p.paraEnd = 0, 0
	p.fence = fenceInfo{}
	p.fenceStart, p.contentStart = 0, 0
	p.fenceLang = Span{}
	p.tableStart = 0
	p.headerLine = Span{}
	p.header, p.rows = nil, nil
	clear(p.queueArr[:])
	p.queue = p.queueArr[:0]
	p.head = 0
}

// Push appends chunk to the buffer and classifies every line it completes.
func (p *Parser) Push(chunk string) {
	if chunk == "" {
		return
	}
	p.closed = false
	p.buf.append(chunk)
	p.advance()
}

// Write implements io.Writer. It never fails.
func (p *Parser) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	p.closed = false
	p.buf.appendBytes(b)
	p.advance()
	return len(b), nil
}

// WriteString implements io.StringWriter. It never fails.
func (p *Parser) WriteString(s string) (int, error) {
	p.Push(s)
	return len(s), nil
}

// Buffer returns everything pushed so far. The string is a view over the
// parser's storage; it stays valid after later pushes and after Reset.
func (p *Parser) Buffer() string {
	return p.buf.view()
}

// Closed reports whether Finalize has run with no push since.
func (p *Parser) Closed() bool {
	return p.closed
}

// InCodeBlock reports whether a fenced code block is open, counting an
// opening fence line that has not been terminated yet.
func (p *Parser) InCodeBlock() bool {
	if p.closed {
		return false
	}
	if p.mode == modeFence {
		return true
	}
	tail, _ := trimSpace(stripCR(p.buf.view()[p.cursor:]))
	return isFenceOpen(tail)
}

// Parsed returns the elements confirmed since the previous drain. Each
// element is yielded once; stopping early leaves the rest queued.
func (p *Parser) Parsed() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for p.head < len(p.queue) {
			el := p.queue[p.head]
			p.queue[p.head] = nil
			p.head++
			if !yield(el) {
				break
			}
		}
		if p.head == len(p.queue) {
			p.queue = p.queue[:0]
			p.head = 0
		}
	}
}

// Pending returns the number of confirmed elements not yet drained.
func (p *Parser) Pending() int {
	return len(p.queue) - p.head
}

// Finalize resolves everything still open: the unterminated last line is
// classified, an open fence closes at the end of the buffer, a table closes
// with the rows seen and unclosed inline constructs become literal text.
// Calling it again without a push in between does nothing.
func (p *Parser) Finalize() {
	if p.closed {
		return
	}
	src := p.buf.view()
	if p.cursor < len(src) {
		p.line(src, p.cursor, len(src), len(src))
		p.cursor = len(src)
		p.scanned = len(src)
	}
	switch p.mode {
	case modeFence:
		p.debug("closing unterminated code fence at end of input", "offset", p.fenceStart)
		p.emitCodeBlock(len(src))
	case modeTableCandidate:
		p.discardTable()
	case modeTable:
		p.closeTable()
	}
	p.closeParagraph(src)
	p.mode = modeNone
	p.closed = true
}

func (p *Parser) advance() {
	src := p.buf.view()
	for {
		from := max(p.cursor, p.scanned)
		nl := strings.IndexByte(src[from:], '\n')
		if nl < 0 {
			p.scanned = len(src)
			return
		}
		end := from + nl
		p.line(src, p.cursor, end, end+1)
		p.cursor = end + 1
		p.scanned = p.cursor
	}
}

// line classifies the complete line src[start:end]; next is the offset of
// the following line.
func (p *Parser) line(src string, start, end, next int) {
	text := stripCR(src[start:end])
	switch p.mode {
	case modeFence:
		if isFenceClose(text, p.fence.char, p.fence.length) {
			p.emitCodeBlock(start)
			p.mode = modeNone
		}
		return
	case modeTableCandidate:
		if isSeparatorRow(text) {
			p.mode = modeTable
			return
		}
		p.discardTable()
		if classifyLine(text) == lineTableCandidate {
			trim, off := trimSpace(text)
			p.paraEnd = start + off + len(trim)
			return
		}
	case modeTable:
		if hasUnescapedPipe(text) {
			trim, off := trimSpace(text)
			p.rows = append(p.rows, offsetSpans(splitRow(trim, nil), start+off))
			return
		}
		p.closeTable()
		if isBlank(text) {
			return
		}
	}
	p.classify(src, text, start, next)
}

func (p *Parser) classify(src, text string, start, next int) {
	trim, off := trimSpace(text)
	lo := start + off
	hi := lo + len(trim)
	if trim == "" {
		p.closeParagraph(src)
		return
	}
	if f, ok := parseFenceOpen(trim); ok {
		p.closeParagraph(src)
		p.mode = modeFence
		p.fence = f
		p.fenceStart = lo
		p.fenceLang = Span{Start: lo + f.langStart, End: lo + f.langEnd}
		p.contentStart = next
		return
	}
	if level, s, e, ok := parseHeading(trim); ok {
		p.closeParagraph(src)
		p.emit(Heading{Level: level, Content: scanInline(src, Span{Start: lo + s, End: lo + e})})
		return
	}
	if isThematicBreak(trim) {
		p.closeParagraph(src)
		p.emit(ThematicBreak{})
		return
	}
	if hasUnescapedPipe(trim) {
		p.closeParagraph(src)
		p.mode = modeTableCandidate
		p.tableStart = lo
		p.headerLine = Span{Start: lo, End: hi}
		p.header = offsetSpans(splitRow(trim, nil), lo)
		p.rows = nil
		return
	}
	if !p.para {
		p.para = true
		p.paraStart = lo
	}
	p.paraEnd = hi
}

func (p *Parser) closeParagraph(src string) {
	if !p.para {
		return
	}
	p.para = false
	p.emit(Paragraph{Content: scanInline(src, Span{Start: p.paraStart, End: p.paraEnd})})
}

func (p *Parser) emitCodeBlock(end int) {
	content := Span{Start: min(p.contentStart, end), End: end}
	p.emit(CodeBlock{Lang: p.fenceLang, HasLang: p.fence.hasLang(), Content: content})
	p.fence = fenceInfo{}
}

// discardTable turns a header line whose separator never arrived into the
// first line of a paragraph. A failing pipe row joins that paragraph.
func (p *Parser) discardTable() {
	p.debug("table header not confirmed, reading as paragraph", "offset", p.tableStart)
	p.mode = modeNone
	p.para = true
	p.paraStart = p.headerLine.Start
	p.paraEnd = p.headerLine.End
	p.header = nil
}

func (p *Parser) closeTable() {
	p.emit(Table{Header: p.header, Rows: p.rows})
	p.mode = modeNone
	p.header, p.rows = nil, nil
}

func (p *Parser) emit(el Element) {
	p.queue = append(p.queue, el)
}

func (p *Parser) debug(msg string, keyvals ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, keyvals...)
	}
}
