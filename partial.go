package mdstream

// Partial is a point-in-time view of the block under construction. It is
// rebuilt on every call to Parser.Partial; do not keep it across a push.
type Partial struct {
	Kind Kind
	// Raw covers the block's text so far, from its first line to the end of
	// the buffer.
	Raw Span
	// Element is the optimistic reading of the block: unclosed emphasis and
	// code run to the end, an open fence holds the lines seen so far.
	Element Element
	// Pending covers a trailing inline construct that cannot be rendered yet,
	// such as an unterminated link or a delimiter run at the very end.
	Pending    Span
	HasPending bool
	// Tentative marks a table header whose separator row has not arrived.
	Tentative bool
}

// Partial returns the block currently under construction, if any.
func (p *Parser) Partial() (Partial, bool) {
	if p.closed {
		return Partial{}, false
	}
	src := p.buf.view()
	tailStart := p.cursor
	tail := stripCR(src[tailStart:])
	switch p.mode {
	case modeFence:
		end := len(src)
		if mayBecomeFenceClose(tail, p.fence.char) {
			end = tailStart
		}
		return Partial{
			Kind: KindCodeBlock,
			Raw:  Span{Start: p.fenceStart, End: len(src)},
			Element: CodeBlock{
				Lang:    p.fenceLang,
				HasLang: p.fence.hasLang(),
				Content: Span{Start: min(p.contentStart, end), End: end},
			},
		}, true
	case modeTable:
		rows := p.rows[:len(p.rows):len(p.rows)]
		if hasUnescapedPipe(tail) {
			trim, off := trimSpace(tail)
			rows = append(rows, offsetSpans(splitRow(trim, nil), tailStart+off))
		}
		return Partial{
			Kind:    KindTable,
			Raw:     Span{Start: p.tableStart, End: len(src)},
			Element: Table{Header: p.header, Rows: rows},
		}, true
	case modeTableCandidate:
		return Partial{
			Kind:      KindTable,
			Raw:       Span{Start: p.tableStart, End: len(src)},
			Element:   Table{Header: p.header},
			Tentative: true,
		}, true
	}

	trim, off := trimSpace(tail)
	lo := tailStart + off
	hi := lo + len(trim)
	kind := classifyLine(trim)
	if p.para {
		end := p.paraEnd
		if kind == lineParagraph {
			end = hi
		}
		return paragraphPartial(src, p.paraStart, end), true
	}
	switch kind {
	case lineParagraph:
		return paragraphPartial(src, lo, hi), true
	case lineHeading:
		level, s, e, _ := parseHeading(trim)
		content, pending, ok := scanInlinePartial(src, Span{Start: lo + s, End: lo + e})
		return Partial{
			Kind:       KindHeading,
			Raw:        Span{Start: lo, End: len(src)},
			Element:    Heading{Level: level, Content: content},
			Pending:    pending,
			HasPending: ok,
		}, true
	case lineFence:
		f, _ := parseFenceOpen(trim)
		return Partial{
			Kind: KindCodeBlock,
			Raw:  Span{Start: lo, End: len(src)},
			Element: CodeBlock{
				Lang:    Span{Start: lo + f.langStart, End: lo + f.langEnd},
				HasLang: f.hasLang(),
				Content: Span{Start: len(src), End: len(src)},
			},
		}, true
	case lineTableCandidate:
		return Partial{
			Kind:      KindTable,
			Raw:       Span{Start: lo, End: len(src)},
			Element:   Table{Header: offsetSpans(splitRow(trim, nil), lo)},
			Tentative: true,
		}, true
	}
	return Partial{}, false
}

func paragraphPartial(src string, start, end int) Partial {
	content, pending, ok := scanInlinePartial(src, Span{Start: start, End: end})
	return Partial{
		Kind:       KindParagraph,
		Raw:        Span{Start: start, End: len(src)},
		Element:    Paragraph{Content: content},
		Pending:    pending,
		HasPending: ok,
	}
}
